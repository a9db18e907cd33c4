package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Write logs as JSON")
	cmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file (rotated)")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (default ~/.profiler/config.yaml)")
	cmd.PersistentFlags().String("proxy", "", "Set HTTP/SOCKS5 proxy for the browser (e.g., http://localhost:8080)")
	cmd.PersistentFlags().String("timeout", "45s", "Timeout for loading one profile page")
	cmd.PersistentFlags().String("user-agent", "", "Custom browser user agent string")
	cmd.PersistentFlags().Bool("headless", DefaultBrowserHeadless, "Run Chrome without a window")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium executable")
	cmd.PersistentFlags().String("session", DefaultSessionName, "Name of the stored LinkedIn session")
	cmd.PersistentFlags().String("model", "", "Gemini model (default "+DefaultGeminiModel+")")
}
