package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"dvrgrab/internal/output"
	"dvrgrab/internal/utils"
)

var (
	globalWorkers   int
	globalTimeout   time.Duration
	globalKATimeout time.Duration
	globalUserAgent string
	globalProxyURL  string
	globalProxyUser string
	globalProxyPass string
	globalHeaders   []string
	globalDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "dvrgrab",
	Short: "Segment-accurate range extraction from live stream DVR windows",
	Long:  "dvrgrab downloads a precise time range from a live stream's DVR window by working at the HLS segment level, with a direct ffmpeg seek mode and a streamlink fallback for awkward streams.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(globalDebug)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&globalWorkers, "workers", "w", 2, "number of concurrent jobs")
	rootCmd.PersistentFlags().DurationVar(&globalTimeout, "timeout", 3*time.Minute, "HTTP request timeout")
	rootCmd.PersistentFlags().DurationVar(&globalKATimeout, "keep-alive", 30*time.Second, "HTTP keep-alive timeout")
	rootCmd.PersistentFlags().StringVarP(&globalUserAgent, "user-agent", "a", "", "custom user agent")
	rootCmd.PersistentFlags().StringVar(&globalProxyURL, "proxy", "", "proxy URL")
	rootCmd.PersistentFlags().StringVar(&globalProxyUser, "proxy-username", "", "proxy username")
	rootCmd.PersistentFlags().StringVar(&globalProxyPass, "proxy-password", "", "proxy password")
	rootCmd.PersistentFlags().StringSliceVar(&globalHeaders, "header", nil, "custom header (key:value), repeatable")
	rootCmd.PersistentFlags().BoolVar(&globalDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newClipCmd())
	rootCmd.AddCommand(newGrabCmd())
	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCleanCmd())
}

func httpClientConfig() utils.HTTPClientConfig {
	return utils.HTTPClientConfig{
		Timeout:       globalTimeout,
		KATimeout:     globalKATimeout,
		UserAgent:     globalUserAgent,
		ProxyURL:      globalProxyURL,
		ProxyUsername: globalProxyUser,
		ProxyPassword: globalProxyPass,
		Headers:       utils.ParseHeaderArgs(globalHeaders),
	}
}
