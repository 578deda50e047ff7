/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Seednode/doodle/games/doodle"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind     string
	envFile  string
	port     int
	prefix   string
	profile  bool
	tlsCert  string
	tlsKey   string
	verbose  bool
	version  bool
	password string
	words    string

	maxRounds     int
	roundTime     int
	chooseTime    int
	countdown     int
	guessPoints   int
	chatHistory   int
	rouletteDelay time.Duration
	resultDelay   time.Duration

	tickRate         time.Duration
	presenceRate     time.Duration
	heartbeatTimeout time.Duration
	reconnectWindow  time.Duration

	messageRate  float64
	messageBurst int
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.password == "" {
		return errors.New("a host password must be set with --password (env: DOODLE_PASSWORD)")
	}
	if c.tickRate <= 0 || c.presenceRate <= 0 {
		return fmt.Errorf("tick rates must be positive (--tick-rate %s, --presence-rate %s)", c.tickRate, c.presenceRate)
	}
	if c.messageRate <= 0 {
		return fmt.Errorf("invalid message rate (must be positive): %v", c.messageRate)
	}
	if c.messageBurst < 1 {
		return fmt.Errorf("invalid message burst (must be at least 1): %d", c.messageBurst)
	}
	return c.settings().Validate()
}

// settings translates the flags into game rules.
func (c *Config) settings() doodle.Settings {
	s := doodle.DefaultSettings()

	s.HostPassword = c.password
	s.MaxRounds = c.maxRounds
	s.RoundTime = c.roundTime
	s.ChooseTime = c.chooseTime
	s.Countdown = c.countdown
	s.GuessPoints = c.guessPoints
	s.ChatHistory = c.chatHistory
	s.RouletteDelay = c.rouletteDelay
	s.ResultDelay = c.resultDelay
	s.HeartbeatTimeout = c.heartbeatTimeout
	s.ReconnectWindow = c.reconnectWindow

	return s
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// applyEnv fills every flag not given on the command line from DOODLE_*
// variables, including those loaded from the env file.
func applyEnv(fs *pflag.FlagSet, v *viper.Viper) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DOODLE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "doodle",
		Short:         "Serves a real-time drawing and guessing party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()

			envFile := cfg.envFile
			if !fs.Changed("env-file") {
				if p := v.GetString("env-file"); p != "" {
					envFile = p
				}
			}
			if err := loadDotEnv(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}

			applyEnv(fs, v)

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	d := doodle.DefaultSettings()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: DOODLE_BIND)")
	fs.StringVar(&cfg.envFile, "env-file", ".env", "file to load DOODLE_* variables from, if it exists (env: DOODLE_ENV_FILE)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: DOODLE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: DOODLE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: DOODLE_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: DOODLE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: DOODLE_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: DOODLE_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: DOODLE_VERSION)")
	fs.StringVar(&cfg.password, "password", "", "password the host screen logs in with (env: DOODLE_PASSWORD)")
	fs.StringVar(&cfg.words, "words", "", "path to a JSON word catalog, replacing the built-in one (env: DOODLE_WORDS)")
	fs.IntVar(&cfg.maxRounds, "max-rounds", d.MaxRounds, "rounds per game (env: DOODLE_MAX_ROUNDS)")
	fs.IntVar(&cfg.roundTime, "round-time", d.RoundTime, "seconds the artist gets to draw (env: DOODLE_ROUND_TIME)")
	fs.IntVar(&cfg.chooseTime, "choose-time", d.ChooseTime, "seconds the artist gets to pick a word, 0 to wait forever (env: DOODLE_CHOOSE_TIME)")
	fs.IntVar(&cfg.countdown, "countdown", d.Countdown, "seconds between picking a word and drawing (env: DOODLE_COUNTDOWN)")
	fs.IntVar(&cfg.guessPoints, "guess-points", d.GuessPoints, "points for a correct guess (env: DOODLE_GUESS_POINTS)")
	fs.IntVar(&cfg.chatHistory, "chat-history", d.ChatHistory, "chat messages kept per round (env: DOODLE_CHAT_HISTORY)")
	fs.DurationVar(&cfg.rouletteDelay, "roulette-delay", d.RouletteDelay, "time the artist roulette is shown (env: DOODLE_ROULETTE_DELAY)")
	fs.DurationVar(&cfg.resultDelay, "result-delay", d.ResultDelay, "time round results are shown (env: DOODLE_RESULT_DELAY)")
	fs.DurationVar(&cfg.tickRate, "tick-rate", time.Second, "interval between game state broadcasts (env: DOODLE_TICK_RATE)")
	fs.DurationVar(&cfg.presenceRate, "presence-rate", 50*time.Millisecond, "interval between presence updates to the host (env: DOODLE_PRESENCE_RATE)")
	fs.DurationVar(&cfg.heartbeatTimeout, "heartbeat-timeout", d.HeartbeatTimeout, "silence before a player is shown offline (env: DOODLE_HEARTBEAT_TIMEOUT)")
	fs.DurationVar(&cfg.reconnectWindow, "reconnect-window", d.ReconnectWindow, "time a live session blocks another tab from taking it over (env: DOODLE_RECONNECT_WINDOW)")
	fs.Float64Var(&cfg.messageRate, "message-rate", 120, "messages per second accepted from each connection (env: DOODLE_MESSAGE_RATE)")
	fs.IntVar(&cfg.messageBurst, "message-burst", 240, "burst of messages accepted from each connection (env: DOODLE_MESSAGE_BURST)")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("doodle v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
