package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// EncryptCommand returns the encrypt command.
func EncryptCommand() *cli.Command {
	return &cli.Command{
		Name:      "encrypt",
		Usage:     "Encrypt data to the configured recipient key",
		ArgsUsage: "[data|-]",
		Action:    runEncrypt,
	}
}

func runEncrypt(c *cli.Context) (err error) {
	input, err := readInput(c, c.Args().First())
	if err != nil {
		return err
	}

	p, err := openProcessor(c)
	if err != nil {
		return err
	}
	defer closeProcessor(p, &err)

	token, err := p.EncryptToken(input)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, token)
	return nil
}

// DecryptCommand returns the decrypt command.
func DecryptCommand() *cli.Command {
	return &cli.Command{
		Name:      "decrypt",
		Usage:     "Decrypt a token with the configured private key",
		ArgsUsage: "[token|-]",
		Action:    runDecrypt,
	}
}

func runDecrypt(c *cli.Context) (err error) {
	input, err := readInput(c, c.Args().First())
	if err != nil {
		return err
	}

	p, err := openProcessor(c)
	if err != nil {
		return err
	}
	defer closeProcessor(p, &err)

	plaintext, err := p.DecryptToken(string(input))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(plaintext))
	return nil
}
