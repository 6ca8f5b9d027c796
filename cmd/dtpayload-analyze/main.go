package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/usnistgov/lpwan-iot/internal/records"
	"github.com/usnistgov/lpwan-iot/pkg/dtpayload"
)

var (
	rootCmd = &cobra.Command{
		Use:   "dtpayload-analyze [hex]",
		Short: "Decode datalogger LoRaWAN uplinks",
		Long:  "dtpayload-analyze decodes dataTaker readings relayed over LoRaWAN by the FiPy datalogger.",
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			switch output {
			case "json", "yaml":
				return nil
			default:
				return fmt.Errorf("unsupported output %q (want json or yaml)", output)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := dtpayload.AnalyzeOptions{
				Port:       port,
				PHY:        phy,
				AppSKeyHex: appSKeyHex,
				NwkSKeyHex: nwkSKeyHex,
			}
			ctx := cmd.Context()
			if len(args) == 0 {
				return runInteractive(ctx, opts)
			}
			return runAnalyze(ctx, opts, args[0])
		},
	}

	recordsCmd = &cobra.Command{
		Use:   "records FILE",
		Short: "Show the readings a dataTaker copyd export would produce",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(args[0])
		},
	}

	portsCmd = &cobra.Command{
		Use:   "ports",
		Short: "List fPorts with a payload driver",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			known := dtpayload.Ports()
			ports := make([]int, 0, len(known))
			for p := range known {
				ports = append(ports, p)
			}
			sort.Ints(ports)
			for _, p := range ports {
				fmt.Printf("%d\t%s\n", p, known[p])
			}
		},
	}

	port       int
	phy        bool
	appSKeyHex string
	nwkSKeyHex string
	output     string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().IntVar(&port, "port", dtpayload.DefaultPort, "fPort of the application payload")
	rootCmd.PersistentFlags().BoolVar(&phy, "phy", false, "input is a complete LoRaWAN PHYPayload")
	rootCmd.PersistentFlags().StringVar(&appSKeyHex, "appskey", "", "hex-encoded 16-byte AppSKey (32 hex chars)")
	rootCmd.PersistentFlags().StringVar(&nwkSKeyHex, "nwkskey", "", "hex-encoded 16-byte NwkSKey, enables MIC check")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(recordsCmd, portsCmd)
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func runInteractive(ctx context.Context, opts dtpayload.AnalyzeOptions) error {
	scanner := bufio.NewScanner(os.Stdin)
	logrus.Info("dtpayload analyze mode. Paste a hex payload and press Enter (Ctrl+D to exit).")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runAnalyze(ctx, opts, line); err != nil {
			logrus.WithError(err).Error("failed to decode payload")
		}
	}
	return scanner.Err()
}

func runAnalyze(ctx context.Context, opts dtpayload.AnalyzeOptions, hex string) error {
	result, err := dtpayload.AnalyzeHexWithOptions(ctx, hex, opts)
	if err != nil {
		return err
	}
	return render(result)
}

func render(result dtpayload.Result) error {
	if output == "yaml" {
		out, err := result.YAML()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}
	fmt.Println(result.String())
	return nil
}

func encode(v any) error {
	if output == "yaml" {
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Print("---\n" + string(data))
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func runRecords(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	recs, err := records.Read(f)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"file": path, "records": len(recs)}).Debug("read dataTaker export")
	for _, rec := range recs {
		reading, err := rec.Reading()
		if err != nil {
			logrus.WithError(err).WithField("timestamp", rec.Timestamp).Warn("skipping record")
			continue
		}
		entry := map[string]any{
			"timestamp":   rec.Timestamp,
			"temperature": rec.Temperature,
			"fields":      reading.Fields(),
		}
		if err := encode(entry); err != nil {
			return err
		}
	}
	return nil
}
