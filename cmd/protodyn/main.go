// Command protodyn decodes protobuf payloads against .proto schemas
// without generated code.
//
// Usage:
//
//	protodyn decode -schema api.proto -type SearchDocsRequest payload.bin
//	protodyn inspect payload.bin
//	protodyn list -schema api.proto
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/protodyn/protodyn"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "protodyn: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: protodyn <decode|inspect|list> [flags] [file]")
	}
	command, args := args[0], args[1:]

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	configPath := fs.String("config", "protodyn.toml", "path to TOML config")
	schemaPath := fs.String("schema", "", "path to a .proto schema file")
	messageType := fs.String("type", "", "message type to decode as")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg.LogLevel)

	p := protodyn.New()
	p.Registry().ProtoDirectories = cfg.ProtoDirs

	schemas := cfg.Schemas
	if *schemaPath != "" {
		schemas = append(schemas, *schemaPath)
	}
	for _, s := range schemas {
		log.Debug().Str("schema", s).Msg("loading schema")
		if err := p.LoadSchemaFromFile(s); err != nil {
			return err
		}
	}

	switch command {
	case "decode":
		return runDecode(p, cfg, log, *messageType, fs.Args())
	case "inspect":
		return runInspect(p, log, fs.Args())
	case "list":
		return runList(p)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func runDecode(p *protodyn.Protodyn, cfg cliConfig, log zerolog.Logger, messageType string, args []string) error {
	if messageType == "" {
		return fmt.Errorf("decode requires -type")
	}
	data, err := readPayload(args)
	if err != nil {
		return err
	}
	log.Debug().Int("bytes", len(data)).Str("type", messageType).Msg("decoding payload")

	decoded, err := p.Unmarshal(data, messageType)
	if err != nil {
		return err
	}
	obj, err := p.ToObject(decoded, messageType, cfg.Convert)
	if err != nil {
		return err
	}
	return printJSON(obj)
}

func runInspect(p *protodyn.Protodyn, log zerolog.Logger, args []string) error {
	data, err := readPayload(args)
	if err != nil {
		return err
	}
	log.Debug().Int("bytes", len(data)).Msg("inspecting payload")

	fields, err := p.Inspect(data)
	if err != nil {
		return err
	}
	return printJSON(fields)
}

func runList(p *protodyn.Protodyn) error {
	messages := p.ListMessages()
	enums := p.ListEnums()
	services := p.ListServices()
	sort.Strings(messages)
	sort.Strings(enums)
	sort.Strings(services)

	return printJSON(map[string]interface{}{
		"messages": messages,
		"enums":    enums,
		"services": services,
	})
}

func readPayload(args []string) ([]byte, error) {
	if len(args) < 1 || args[0] == "-" {
		return readAllStdin()
	}
	return os.ReadFile(args[0])
}

func readAllStdin() ([]byte, error) {
	info, err := os.Stdin.Stat()
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return nil, fmt.Errorf("no payload: pass a file or pipe bytes on stdin")
	}
	var buf []byte
	chunk := make([]byte, 32*1024)
	for {
		n, err := os.Stdin.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	return buf, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}
