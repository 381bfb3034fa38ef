package commands

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kovanka/streamvault/internal/config"
	"github.com/kovanka/streamvault/internal/events"
	"github.com/kovanka/streamvault/internal/logger"
	"github.com/kovanka/streamvault/internal/store"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "streamvault",
	Short: "Scheduled IPTV recording daemon and administration CLI",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		logger.Init(cfg.LogLevel, isTTY())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to an explicit config file")
	_ = viper.BindPFlag("configfile", rootCmd.PersistentFlags().Lookup("config"))
	rootCmd.PersistentFlags().Bool("local", false, "use an in-memory store instead of Redis")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(channelCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newStore builds the Store/Bus pair this command will operate against: a
// real Redis-backed store normally, falling back to an in-memory Store
// under --local for ad-hoc exercising of the CLI without Redis running.
func newStore(cmd *cobra.Command) (store.Store, events.Bus, func(), error) {
	local, _ := cmd.Flags().GetBool("local")
	if local {
		bus := events.NewMemoryBus()
		return store.NewMemory(bus), bus, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	bus := events.NewRedisBus(client)
	st := store.NewRedis(client, bus)
	cleanup := func() { _ = client.Close() }
	return st, bus, cleanup, nil
}

func isTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
