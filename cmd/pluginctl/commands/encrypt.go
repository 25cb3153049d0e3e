package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewEncryptCommand builds `pluginctl encrypt`, which turns a plaintext
// database type or connection string into the enc:v1: form expected in
// plugin manifests when security.protect_data is on.
func NewEncryptCommand(env *Env) *cobra.Command {
	var decrypt bool

	cmd := &cobra.Command{
		Use:   "encrypt [value]",
		Short: "Encrypt a manifest override with security.secret_key",
		Long: `Encrypt a manifest override with security.secret_key.

The value is read from the argument, or from the first line of stdin when
no argument is given, so secrets need not appear in shell history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readValue(cmd, args)
			if err != nil {
				return err
			}
			r, err := env.Secrets()
			if err != nil {
				return err
			}

			var out string
			if decrypt {
				out, err = r.Decrypt(in)
			} else {
				out, err = r.Encrypt(in)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(env.Out, out)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&decrypt, "decrypt", "d", false, "Decrypt an enc:v1: value instead")
	return cmd
}

func readValue(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("no value given: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
