package cli

import (
	"context"
	"encoding/hex"
	stderrors "errors"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/zipsign/internal/clock"
	"github.com/mrz1836/zipsign/internal/config"
	"github.com/mrz1836/zipsign/internal/errors"
	"github.com/mrz1836/zipsign/internal/keystore"
	"github.com/mrz1836/zipsign/internal/tui"
)

// keyList is the JSON document written by keys list.
type keyList struct {
	Dir  string     `json:"dir"`
	Keys []keyEntry `json:"keys"`
}

type keyEntry struct {
	Name      string    `json:"name"`
	PublicKey string    `json:"publicKey"`
	Created   time.Time `json:"created"`
}

// publicKeyColumnWidth keeps the text listing readable; JSON carries the full key.
const publicKeyColumnWidth = 20

// generatedKey is the JSON document written by keys generate.
type generatedKey struct {
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"`
}

// AddKeysCommand adds the keys command group to root.
func AddKeysCommand(root *cobra.Command, gf *GlobalFlags) {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage signing keys",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the named keys in the key directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openKeyStore(cmd.Context())
			if err != nil {
				return err
			}
			return runKeysList(cmd.Context(), store, cmd.OutOrStdout(), gf.Output)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "generate <name>",
		Short: "Generate a new named Ed25519 key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openKeyStore(cmd.Context())
			if err != nil {
				return err
			}
			return runKeysGenerate(cmd.Context(), store, args[0], tui.NewOutput(cmd.OutOrStdout(), gf.Output), gf.Output)
		},
	})

	root.AddCommand(cmd)
}

func openKeyStore(ctx context.Context) (*keystore.Store, error) {
	logger := GetLogger()
	cfg, err := config.Load(logger.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	dir, err := config.KeyDir(cfg)
	if err != nil {
		return nil, err
	}
	return keystore.New(dir, keystore.WithLogger(logger)), nil
}

func runKeysList(ctx context.Context, store *keystore.Store, w io.Writer, format string) error {
	infos, err := store.List(ctx)
	if err != nil {
		return err
	}

	if format == OutputJSON {
		list := keyList{Dir: store.Dir(), Keys: make([]keyEntry, 0, len(infos))}
		for _, info := range infos {
			list.Keys = append(list.Keys, keyEntry{
				Name:      info.Name,
				PublicKey: hex.EncodeToString(info.PublicKey),
				Created:   info.ModTime.UTC(),
			})
		}
		return tui.NewJSONOutput(w).JSON(list)
	}
	if len(infos) == 0 {
		tui.NewOutput(w, format).Info("no keys in " + store.Dir())
		return nil
	}

	table := tui.NewTable(w, []tui.TableColumn{
		{Name: "NAME"},
		{Name: "PUBLIC KEY", Width: publicKeyColumnWidth},
		{Name: "CREATED"},
	})
	for _, info := range infos {
		table.AddRow(info.Name, hex.EncodeToString(info.PublicKey), tui.Age(info.ModTime, clock.RealClock{}))
	}
	return table.Render()
}

func runKeysGenerate(ctx context.Context, store *keystore.Store, name string, out tui.Output, format string) error {
	key, err := store.Generate(ctx, name)
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidKeyName) {
			return errors.NewExitCode2Error(err)
		}
		return err
	}

	logger := GetLogger()
	logger.Info().Str("key_name", key.Name()).Msg("key generated")
	pub := hex.EncodeToString(key.PublicKey())
	if format == OutputJSON {
		return out.JSON(generatedKey{Name: key.Name(), PublicKey: pub})
	}
	out.Success("generated key " + key.Name())
	out.Info("public key: " + pub)
	return nil
}
