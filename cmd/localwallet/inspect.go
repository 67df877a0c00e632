package main

import (
	"fmt"

	"github.com/AlexZinkM/evm-local-wallet/internal/config"
	"github.com/AlexZinkM/evm-local-wallet/internal/crypto"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

var maxKeystoreBytes int64 = 65536

var inspectCmd = &cobra.Command{
	Use:   "inspect <keystore.json>",
	Short: "Decrypts a keystore offline and prints its address.",
	Long: "Decrypts a keystore offline and prints its address.\n" +
		"\nArguments:\n" +
		"  <keystore.json>    path to a Web3 Secret Storage (v3) keystore file\n" +
		"\nThe password is prompted for without echo. The private key is never printed.\n",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := crypto.ReadKeystoreFile(args[0], maxKeystoreBytes)
		if err != nil {
			return err
		}
		doc, err := crypto.ParseDocument(raw)
		if err != nil {
			return err
		}

		password, err := config.PromptForPassword("Enter keystore password: ")
		if err != nil {
			return err
		}
		// Decrypt wipes password.
		identity, err := crypto.Decrypt(doc, password)
		if err != nil {
			return err
		}
		defer identity.Destroy()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Address: %s\n", identity.Address().Hex())
		fmt.Fprintf(out, "KDF:     %s\n", doc.KDF())
		if id := doc.ID(); id != uuid.Nil {
			fmt.Fprintf(out, "ID:      %s\n", id)
		}

		qr, err := qrcode.New(identity.Address().Hex(), qrcode.Medium)
		if err != nil {
			return fmt.Errorf("failed to render QR code: %w", err)
		}
		fmt.Fprintln(out, qr.ToSmallString(false))
		return nil
	},
}

func init() {
	inspectCmd.Flags().Int64Var(&maxKeystoreBytes, "max-bytes", maxKeystoreBytes, "refuse keystore files larger than this")
}
