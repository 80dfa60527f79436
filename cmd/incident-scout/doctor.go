// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/incident-scout/internal/container"
	"github.com/meshintel/incident-scout/internal/source"
)

const (
	modelContainerName = "scout-model"
	modelImage         = "ollama/ollama:latest"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the pipeline's dependencies are in place",
	Long: `Doctor verifies the local setup: the sources file parses, the model server
answers, and (when it does not) whether a container runtime is available to
start one. With --start-model it pulls the serving image if needed and starts
the model server container.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().Bool("start-model", false, "start the model server container if the endpoint is down")

	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg := loadPipelineConfig()
	failed := false

	defs, err := source.LoadDefinitions(cfg.Sources.SourcesFile)
	if err != nil {
		fmt.Printf("sources: FAIL (%v)\n", err)
		failed = true
	} else {
		fmt.Printf("sources: ok (%d configured)\n", len(defs))
	}

	if endpointUp(cfg.LLM.BaseURL) {
		fmt.Printf("model server: ok (%s)\n", cfg.LLM.BaseURL)
	} else {
		fmt.Printf("model server: DOWN (%s)\n", cfg.LLM.BaseURL)
		startModel, _ := cmd.Flags().GetBool("start-model")
		if err := checkRuntime(cfg.LLM.BaseURL, startModel); err != nil {
			fmt.Printf("container runtime: FAIL (%v)\n", err)
			failed = true
		}
	}

	if failed {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

// endpointUp probes the model server's listing endpoint with a short timeout.
func endpointUp(baseURL string) bool {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(baseURL + "/api/tags")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// checkRuntime reports on the container runtime and optionally starts the
// model server container.
func checkRuntime(baseURL string, startModel bool) error {
	rt, err := container.DetectRuntime()
	if err != nil {
		return err
	}
	fmt.Printf("container runtime: ok (%s)\n", rt.Name())

	if rt.Running(modelContainerName) {
		fmt.Printf("model container: %s exists but the endpoint is not answering yet\n", modelContainerName)
		return nil
	}

	if !startModel {
		fmt.Printf("model container: not running (rerun with --start-model to start %s)\n", modelImage)
		return nil
	}

	if err := rt.ImageExists(modelImage); err != nil {
		fmt.Printf("pulling %s...\n", modelImage)
		if err := rt.Pull(modelImage, os.Stderr); err != nil {
			return err
		}
	}

	if err := rt.ServeModel(modelContainerName, modelImage, portOf(baseURL)); err != nil {
		return err
	}
	fmt.Printf("model container: started %s as %s\n", modelImage, modelContainerName)
	return nil
}

// portOf extracts the port from the endpoint URL, defaulting to 11434.
func portOf(baseURL string) int {
	u, err := url.Parse(baseURL)
	if err != nil {
		return 11434
	}
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			return n
		}
	}
	return 11434
}
