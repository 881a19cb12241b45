package command

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cybergodev/jose"
)

const (
	minRSABits      = 2048
	hmacSecretBytes = 64
)

// KeygenCommand returns the keygen command.
func KeygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate an HMAC secret or an RSA key pair",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage:   "Key type: hmac, rsa",
				Value:   "rsa",
			},
			&cli.IntFlag{
				Name:  "bits",
				Usage: "RSA modulus size",
				Value: minRSABits,
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write <out>.pem and <out>.pub.pem instead of printing",
			},
		},
		Action: runKeygen,
	}
}

func runKeygen(c *cli.Context) error {
	switch c.String("type") {
	case "hmac":
		secret := make([]byte, hmacSecretBytes)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
		fmt.Fprintln(c.App.Writer, jose.EncodeSegment(secret))
		return nil

	case "rsa":
		bits := c.Int("bits")
		if bits < minRSABits {
			return fmt.Errorf("RSA keys must be at least %d bits, got %d", minRSABits, bits)
		}
		priv, err := rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return fmt.Errorf("generate RSA key: %w", err)
		}
		key := jose.RSAKeyPair(priv)
		defer key.Destroy()

		privPEM, err := key.MarshalPrivateKeyPEM()
		if err != nil {
			return err
		}
		pubPEM, err := key.MarshalPublicKeyPEM()
		if err != nil {
			return err
		}

		out := c.String("out")
		if out == "" {
			fmt.Fprint(c.App.Writer, string(privPEM)+string(pubPEM))
			return nil
		}
		if err := os.WriteFile(out+".pem", privPEM, 0o600); err != nil {
			return fmt.Errorf("write private key: %w", err)
		}
		if err := os.WriteFile(out+".pub.pem", pubPEM, 0o644); err != nil {
			return fmt.Errorf("write public key: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "wrote %s.pem and %s.pub.pem\n", out, out)
		return nil

	default:
		return fmt.Errorf("unknown key type %q (want hmac or rsa)", c.String("type"))
	}
}
