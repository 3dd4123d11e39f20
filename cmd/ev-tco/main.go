package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/iwvelando/ev-tco/internal/config"
	"github.com/iwvelando/ev-tco/internal/tco"
	"github.com/iwvelando/ev-tco/pkg/constants"
	"github.com/iwvelando/ev-tco/pkg/export"
	"github.com/iwvelando/ev-tco/pkg/output"
	"github.com/iwvelando/ev-tco/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json, xlsx, pdf")
	outputFileFlag := flag.String("output-file", "", "write the report to this file instead of stdout")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := conf.Logging.BuildLogger(*logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI overrides take precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	outputFile := conf.Output.File
	if *outputFileFlag != "" {
		outputFile = *outputFileFlag
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}
	if validation.IsBinaryFormat(outputFormat) && outputFile == "" {
		logger.Fatal(fmt.Sprintf("output format %s requires an output file", outputFormat),
			zap.String("op", "main"),
		)
	}

	// Out-of-range inputs are reported but do not stop the run
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	summary, cashflows, entries := tco.NewEngine(logger).Run(conf.Inputs)
	if err := tco.CheckFinite(summary, cashflows); err != nil {
		logger.Warn("Computation overflowed: "+err.Error(),
			zap.String("op", "main"),
		)
	}
	report := output.NewReport(conf.Inputs, summary, cashflows, entries)

	if err := writeReport(report, outputFormat, outputFile); err != nil {
		logger.Fatal("failed to write report",
			zap.String("op", "main"),
			zap.String("format", outputFormat),
			zap.Error(err),
		)
	}
}

func writeReport(report output.Report, format, path string) error {
	switch format {
	case constants.OutputFormatXLSX:
		data, err := export.XLSX(report)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0644)
	case constants.OutputFormatPDF:
		data, err := export.PDF(report)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0644)
	}

	if path == "" {
		return writeText(os.Stdout, report, format)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeText(file, report, format); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func writeText(w io.Writer, report output.Report, format string) error {
	switch format {
	case constants.OutputFormatCSV:
		return output.CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return output.JSONFormat(w, report)
	default:
		return output.PrettyFormat(w, report)
	}
}
