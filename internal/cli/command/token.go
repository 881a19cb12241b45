package command

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/cybergodev/jose"
)

// SignCommand returns the sign command.
func SignCommand() *cli.Command {
	return &cli.Command{
		Name:      "sign",
		Usage:     "Issue a signed token for a JSON claims object",
		ArgsUsage: "[claims-json|-]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "sub",
				Usage: "Subject, overrides the sub claim",
			},
		},
		Action: runSign,
	}
}

func runSign(c *cli.Context) (err error) {
	input, err := readInput(c, c.Args().First())
	if err != nil {
		return err
	}
	claims, err := jose.ParseClaims(input)
	if err != nil {
		return err
	}
	if sub := c.String("sub"); sub != "" {
		claims.SetSubject(sub)
	}

	p, err := openProcessor(c)
	if err != nil {
		return err
	}
	defer closeProcessor(p, &err)

	token, err := p.CreateTokenWithContext(c.Context, claims)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, token)
	return nil
}

// VerifyCommand returns the verify command.
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Verify a signed token and print its claims",
		ArgsUsage: "[token|-]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Print only the verification result",
			},
		},
		Action: runVerify,
	}
}

func runVerify(c *cli.Context) (err error) {
	input, err := readInput(c, c.Args().First())
	if err != nil {
		return err
	}

	p, err := openProcessor(c)
	if err != nil {
		return err
	}
	defer closeProcessor(p, &err)

	claims, result := p.ValidateTokenWithContext(c.Context, string(input))
	fmt.Fprintln(c.App.Writer, result)
	if result != jose.ResultValid {
		return fmt.Errorf("token %s", result)
	}
	if c.Bool("quiet") {
		return nil
	}

	out, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
