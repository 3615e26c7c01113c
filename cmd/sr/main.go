package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"shiftreport/internal/config"
	"shiftreport/internal/cred"
	"shiftreport/internal/domain"
	"shiftreport/internal/logger"
	"shiftreport/internal/mail"
	"shiftreport/internal/projection"
	"shiftreport/internal/render"
	"shiftreport/internal/server"
	"shiftreport/internal/shift"
	"shiftreport/internal/tfs"
)

var rootCmd = &cobra.Command{
	Use:   "sr",
	Short: "Shift report CLI",
	Long: `sr queries the work-item tracker for items created during a shift,
projects them into a table, and mails the result as a styled HTML report.

Shifts are the three fixed selectors morning, evening, and night; each maps
to a UTC time window from shiftreport.yml. One run is one report: query,
project, render, hand off. Nothing is stored between runs.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SHIFTREPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("dev", false, "pretty console logs")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("dev", rootCmd.PersistentFlags().Lookup("dev"))
}

func registerCommands() {
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(previewCmd())
	rootCmd.AddCommand(configCmd())
}

func reportCmd() *cobra.Command {
	var consoleMode bool
	var emlPath string
	cmd := &cobra.Command{
		Use:   "report [morning|evening|night]",
		Short: "Build and mail the shift report",
		Long:  "Queries work items created during the selected shift window and mails the HTML report. With no selector the shift containing the current time is used. --console prints a fixed-width preview instead of mailing.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shiftName := ""
			if len(args) == 1 {
				shiftName = args[0]
			}
			return withConfig(func(cfg *config.Config, log zerolog.Logger) error {
				tbl, err := buildTable(cmd.Context(), cfg, log, shiftName, !consoleMode)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tbl)
				}
				if consoleMode {
					fmt.Println(render.Console(tbl))
					return nil
				}
				html, err := render.Document(tbl, render.Options{Greeting: cfg.Mail.Greeting, Closing: cfg.Mail.Closing})
				if err != nil {
					return err
				}
				msg := mail.Message{
					To:       cfg.Mail.To,
					From:     cfg.Mail.From,
					Subject:  strings.TrimSpace(cfg.Mail.SubjectPrefix + " " + tbl.Title),
					HTMLBody: html,
				}
				var sender mail.Sender = mail.SMTPSender{Addr: cfg.Mail.SMTPAddr}
				if emlPath != "" {
					sender = mail.FileWriter{Path: emlPath}
				}
				if err := sender.Send(msg); err != nil {
					return err
				}
				log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("report handed off")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&consoleMode, "console", false, "print a console preview instead of mailing")
	cmd.Flags().StringVar(&emlPath, "eml", "", "write the composed message to a .eml file instead of sending")
	return cmd
}

func previewCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "preview [morning|evening|night]",
		Short: "Serve the rendered HTML report in a browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shiftName := ""
			if len(args) == 1 {
				shiftName = args[0]
			}
			return withConfig(func(cfg *config.Config, log zerolog.Logger) error {
				tbl, err := buildTable(cmd.Context(), cfg, log, shiftName, true)
				if err != nil {
					return err
				}
				html, err := render.Document(tbl, render.Options{Greeting: cfg.Mail.Greeting, Closing: cfg.Mail.Closing})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: server.New(server.Config{HTML: html})}
				go func() {
					<-cmd.Context().Done()
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
				fmt.Printf("Serving report preview on http://%s\n", addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage shiftreport.yml",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var serverURL, project string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(serverURL, project)), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server-url", "", "tracking server base URL")
	cmd.Flags().StringVar(&project, "project", "", "project name")
	_ = cmd.MarkFlagRequired("server-url")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			cfg, err := config.LoadOptional(workspace)
			if err != nil {
				return err
			}
			if cfg == nil {
				fmt.Printf("no config at %s; create one with sr config init\n", config.Path(workspace))
				return nil
			}
			return printJSON(cfg)
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if filePath != "" {
				_, err = config.FromFile(filePath)
			} else {
				_, err = config.Load(viper.GetString("workspace"))
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "validate this file instead of the workspace config")
	return cmd
}

// --- helpers ---

func withConfig(fn func(*config.Config, zerolog.Logger) error) error {
	cfg, err := config.Load(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	log := logger.New(viper.GetBool("dev"))
	return fn(cfg, log)
}

// buildTable runs the fetch-then-project pipeline for one shift. Transport
// and credential failures degrade to the no-results table per the configured
// policy; they never crash the run.
func buildTable(ctx context.Context, cfg *config.Config, log zerolog.Logger, shiftName string, titleAsLink bool) (domain.Table, error) {
	now := time.Now().UTC()
	if shiftName == "" {
		name, ok := shift.Current(cfg.Shifts, now)
		if !ok {
			return domain.Table{}, fmt.Errorf("no configured shift contains the current time; pass a selector")
		}
		shiftName = name
	}
	sh, ok := cfg.Shifts[shiftName]
	if !ok {
		return domain.Table{}, fmt.Errorf("unknown shift %q (expected %s)", shiftName, strings.Join(config.RequiredShifts, ", "))
	}
	from, to := shift.Window(sh, now)

	token := ""
	store := cred.Store{
		Env:       cfg.Auth.Env,
		TokenFile: cfg.Auth.TokenFile,
		Workspace: viper.GetString("workspace"),
	}
	if tok, err := store.Token(); err != nil {
		log.Warn().Err(err).Str("policy", cfg.CredentialPolicy()).Msg("credential retrieval failed")
		if cfg.CredentialPolicy() == config.PolicyAbort {
			return domain.Table{}, fmt.Errorf("credential retrieval failed: %w", err)
		}
	} else {
		token = tok
	}

	wiql := shift.BuildQuery(cfg.Server.Project, cfg.SourceFields(), from, to)
	client := tfs.New(cfg, token, log)
	items, err := client.Fetch(ctx, wiql)
	if err != nil {
		log.Error().Err(err).Msg("work item fetch failed; continuing with no data")
		items = nil
	}

	spec, err := projection.Compile(cfg.Columns, titleAsLink, cfg.Server.URL+cfg.LinkTemplate)
	if err != nil {
		return domain.Table{}, err
	}
	title := fmt.Sprintf("Work items for %s shift, %s - %s UTC",
		shiftName, from.Format("01/02/2006 15:04"), to.Format("15:04"))
	return spec.Project(items, title), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
