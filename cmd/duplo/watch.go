package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/duplo/internal/cli"
	"github.com/hyperjump/duplo/internal/config"
	"github.com/hyperjump/duplo/internal/server"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// runWatch manages the inbox directories of a running server.
func runWatch(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errors.New("usage: duplo watch <add|remove|list> [path]")
	}
	sub := args[0]
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	serverURL := fs.String("server", "http://localhost:5001", "server URL")
	if err := fs.Parse(argsReorder(args[1:])); err != nil {
		return err
	}
	endpoint := strings.TrimRight(*serverURL, "/") + "/api/watch/directories"

	switch sub {
	case "add":
		if fs.NArg() < 1 {
			return errors.New("usage: duplo watch add <path>")
		}
		path, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			return err
		}
		body, _ := json.Marshal(map[string]interface{}{"path": path, "scan": true})
		resp, err := httpClient.Post(endpoint, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()
		if err := expectStatus(resp, http.StatusCreated, "add"); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			return errors.New("usage: duplo watch remove <path>")
		}
		path, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			return err
		}
		req, err := http.NewRequest(http.MethodDelete, endpoint+"?path="+url.QueryEscape(path), nil)
		if err != nil {
			return err
		}
		resp, err := httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()
		if err := expectStatus(resp, http.StatusOK, "remove"); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Removed: %s\n", path)
	case "list":
		resp, err := httpClient.Get(endpoint)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()
		if err := expectStatus(resp, http.StatusOK, "list"); err != nil {
			return err
		}
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("parse failed: %w", err)
		}
		for _, d := range out.Directories {
			fmt.Fprintln(stdout, d)
		}
	default:
		return fmt.Errorf("unknown watch subcommand: %s", sub)
	}
	return nil
}

func expectStatus(resp *http.Response, want int, op string) error {
	if resp.StatusCode == want {
		return nil
	}
	b, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, strings.TrimSpace(string(b)))
}

// runInit writes the default configuration to a file.
func runInit(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	out := fs.String("out", "config.yaml", "where to write the config")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := os.Stat(*out); err == nil && !*force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", *out)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if err := config.Save(*out, cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Config written to %s\n", *out)
	return nil
}

// runStatus prints the status of a running server.
func runStatus(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	serverURL := fs.String("server", "http://localhost:5001", "server URL")
	output := fs.String("output", "text", "output format: text or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		return err
	}
	resp, err := httpClient.Get(strings.TrimRight(*serverURL, "/") + "/api/status")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := expectStatus(resp, http.StatusOK, "status"); err != nil {
		return err
	}
	var status server.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("parse failed: %w", err)
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}
	reachable := "reachable"
	if !status.StoreReachable {
		reachable = "UNREACHABLE"
	}
	fmt.Fprintf(stdout, "Store:        %s (%s), results kept %s\n", status.Store, reachable, status.TaskTTL)
	fmt.Fprintf(stdout, "Analysis:     header row %d, preview %d rows, uploads up to %d MB\n",
		status.HeaderRow, status.PreviewRows, status.MaxUploadMB)
	if len(status.Watching) > 0 {
		fmt.Fprintf(stdout, "Watching:     %s\n", strings.Join(status.Watching, ", "))
		fmt.Fprintf(stdout, "Exports to:   %s\n", status.OutputDir)
	}
	fmt.Fprintf(stdout, "Disk usage:   %d bytes\n", status.DiskUsageBytes)
	return nil
}
