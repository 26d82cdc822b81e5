package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/xpref/internal/api/handler"
	"github.com/creamcroissant/xpref/internal/bootstrap"
	"github.com/creamcroissant/xpref/internal/migrations"
	"github.com/creamcroissant/xpref/internal/service"
)

func init() {
	// Migrate
	var migrateCmd = &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Database migration management",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := bootstrap.OpenDatabase(cmd.Context(), cfg.DB, newLogger())
			if err != nil {
				return err
			}
			defer database.Close()

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}
			switch action {
			case "up":
				return migrations.Up(database.DB, database.Dialect)
			case "down":
				return migrations.Down(database.DB, database.Dialect)
			default:
				return migrations.Status(database.DB, database.Dialect)
			}
		},
	}
	rootCmd.AddCommand(migrateCmd)

	// Token
	var tokenUser string
	var tokenTTL time.Duration
	var tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Identity token helpers",
	}
	var tokenIssueCmd = &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a user id",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			signed, claims, err := a.infra.Token.Issue(tokenUser, tokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signed)
			a.logger.Info("token issued", "user_id", claims.UserID(), "expires_at", claims.ExpiresAt.Time)
			return nil
		},
	}
	tokenIssueCmd.Flags().StringVar(&tokenUser, "user", "", "user id (token subject)")
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = tokenIssueCmd.MarkFlagRequired("user")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)

	// Pref
	var prefUser string
	var prefOutput string
	var prefLocale string
	var prefCmd = &cobra.Command{
		Use:   "pref",
		Short: "Read or write a user's stored preference",
	}
	var prefGetCmd = &cobra.Command{
		Use:   "get",
		Short: "Resolve a user's preference",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			pref, err := a.infra.Service.Get(cmd.Context(), service.PreferenceScope{UserID: prefUser})
			if err != nil {
				return err
			}
			return writePreference(cmd.OutOrStdout(), prefOutput, pref)
		},
	}
	prefGetCmd.Flags().StringVar(&prefUser, "user", "", "user id")
	prefGetCmd.Flags().StringVarP(&prefOutput, "output", "o", "json", "output format: json|yaml")
	_ = prefGetCmd.MarkFlagRequired("user")

	var prefSetCmd = &cobra.Command{
		Use:   "set",
		Short: "Update a user's stored preference",
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := map[string]string{}
			if cmd.Flags().Changed("locale") {
				patch["locale"] = prefLocale
			}
			body, err := json.Marshal(patch)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			pref, err := a.infra.Service.Update(cmd.Context(), service.PreferenceScope{UserID: prefUser}, body)
			if err != nil {
				return err
			}
			return writePreference(cmd.OutOrStdout(), prefOutput, pref)
		},
	}
	prefSetCmd.Flags().StringVar(&prefUser, "user", "", "user id")
	prefSetCmd.Flags().StringVar(&prefLocale, "locale", "", "locale code")
	prefSetCmd.Flags().StringVarP(&prefOutput, "output", "o", "json", "output format: json|yaml")
	_ = prefSetCmd.MarkFlagRequired("user")
	prefCmd.AddCommand(prefGetCmd, prefSetCmd)
	rootCmd.AddCommand(prefCmd)

	// Locales
	var localesLang string
	var localesCmd = &cobra.Command{
		Use:   "locales",
		Short: "List supported locales",
		RunE: func(cmd *cobra.Command, args []string) error {
			locales, err := cfg.Locale.LocaleSet()
			if err != nil {
				return err
			}
			manager, err := newI18nManager(locales)
			if err != nil {
				return err
			}
			return writeLocales(cmd.OutOrStdout(), handler.BuildLocaleList(manager, localesLang))
		},
	}
	localesCmd.Flags().StringVar(&localesLang, "lang", "", "language for labels (default locale.default)")
	rootCmd.AddCommand(localesCmd)
}

func writePreference(w io.Writer, format string, pref service.Preference) error {
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pref)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(map[string]string{"locale": pref.Locale})
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeLocales(w io.Writer, list handler.LocaleList) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tLABEL\tDEFAULT")
	for _, l := range list.Locales {
		marker := ""
		if l.Code == list.Default {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Code, l.Label, marker)
	}
	return tw.Flush()
}
