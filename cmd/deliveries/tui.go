package main

import (
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/diewo77/go-deliveries/internal/tui"
)

var (
	tuiLang    string
	tuiLogFile string
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the ledger in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, st, err := openStore()
		if err != nil {
			return err
		}
		lang := tuiLang
		if lang == "" {
			lang = cfg.App.Lang
		}
		// The alternate screen owns the terminal; logs go to a file or nowhere.
		if tuiLogFile != "" {
			f, err := tea.LogToFile(tuiLogFile, "tui")
			if err != nil {
				return err
			}
			defer f.Close()
		} else {
			log.SetOutput(io.Discard)
		}
		return tui.Run(cmd.Context(), newController(st), lang)
	},
}

func init() {
	tuiCmd.Flags().StringVar(&tuiLang, "lang", "", "message language (sr or en; default APP_LANG)")
	tuiCmd.Flags().StringVar(&tuiLogFile, "log-file", "", "append logs to this file while the UI runs")
}
