package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Generate a bcrypt hash for the PASSWORD_HASH environment variable",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHashPassword(cmd)
		},
	}
}

func runHashPassword(cmd *cobra.Command) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	fmt.Fprint(out, "Password: ")
	password, err := readLine(in)
	if err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	fmt.Fprint(out, "Repeat: ")
	repeat, err := readLine(in)
	if err != nil {
		return err
	}
	if password != repeat {
		return fmt.Errorf("passwords do not match")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	fmt.Fprintf(out, "\nexport PASSWORD_HASH='%s'\n", hash)
	return nil
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
