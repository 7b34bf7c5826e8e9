package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom/internal/server"
)

var (
	srvAddr      string
	srvRateLimit float64
	srvBurst     int
	srvMaxMB     int
	srvSource    sourceFlags
	srvThreshold thresholdFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis over HTTP (POST /api/v1/analyze, POST /api/v1/report)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		loadOpt, err := srvSource.options()
		if err != nil {
			return err
		}
		opt, err := srvThreshold.options(cmd)
		if err != nil {
			return err
		}
		cl, err := classifier()
		if err != nil {
			return err
		}

		scfg := server.Config{
			Addr:        c.ServerAddr,
			RateLimit:   c.ServerRateLimit,
			Burst:       c.ServerBurst,
			MaxUploadMB: c.MaxUploadMB,
			Options:     opt,
			Classifier:  cl,
			Load:        loadOpt,
		}
		f := cmd.Flags()
		if f.Changed("addr") {
			scfg.Addr = srvAddr
		}
		if f.Changed("rate") {
			scfg.RateLimit = srvRateLimit
		}
		if f.Changed("burst") {
			scfg.Burst = srvBurst
		}
		if f.Changed("max-upload-mb") {
			scfg.MaxUploadMB = srvMaxMB
		}
		if scfg.Addr == "" {
			scfg.Addr = "127.0.0.1:8080"
		}
		if !debug && os.Getenv("GIN_MODE") == "" {
			gin.SetMode(gin.ReleaseMode)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		success(cmd.OutOrStdout(), "Serving on http://%s (rate %.1f req/s, burst %d)", scfg.Addr, scfg.RateLimit, scfg.Burst)
		return server.New(scfg).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config, 127.0.0.1:8080)")
	serveCmd.Flags().Float64Var(&srvRateLimit, "rate", 0, "requests per second across clients, 0 = unlimited (default from config)")
	serveCmd.Flags().IntVar(&srvBurst, "burst", 0, "rate limiter burst size (default from config)")
	serveCmd.Flags().IntVar(&srvMaxMB, "max-upload-mb", 0, "maximum upload size in MB (default from config)")
	srvSource.register(serveCmd)
	srvThreshold.register(serveCmd)
}
