package cli

import (
	"errors"
	"fmt"

	"github.com/Eursukkul/consultation-service/internal/payment"
	"github.com/spf13/cobra"
)

var signSecret string

var signCmd = &cobra.Command{
	Use:   "sign <order-id> <payment-id>",
	Short: "Print the Razorpay checkout signature for an order and payment",
	Long: `Computes the signature Razorpay checkout returns for a payment, using
RAZORPAY_KEY_SECRET unless --secret is given. Handy for exercising
/api/verify-payment against a local server.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		secret := signSecret
		if secret == "" {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			secret = cfg.RazorpayKeySecret
		}
		if secret == "" {
			return errors.New("no key secret: set RAZORPAY_KEY_SECRET or pass --secret")
		}
		fmt.Fprintln(cmd.OutOrStdout(), payment.Sign(args[0], args[1], secret))
		return nil
	},
}

func init() {
	signCmd.Flags().StringVar(&signSecret, "secret", "", "key secret (defaults to RAZORPAY_KEY_SECRET)")
}
