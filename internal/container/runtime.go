// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a local container runtime and manages the
// model-serving container the extraction backend talks to. Docker is
// preferred, Podman is the fallback; both expose the same operations.
package container

import (
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime provides the container operations the model preflight needs:
// checking availability, verifying and pulling the serving image, and
// starting the model server.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(image string) error

	// Pull downloads the image, streaming runtime output to progress.
	Pull(image string, progress io.Writer) error

	// Running reports whether a container with the given name exists.
	Running(name string) bool

	// ServeModel starts a detached model-server container with the given
	// name, publishing the server port on the host. Model weights live in
	// a named volume so they survive container restarts.
	ServeModel(name, image string, port int) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunPiped(name string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	return cmd.Run()
}

// runtime implements Runtime for a specific container binary. Docker and
// Podman share the same logic; they differ only in binary name and the
// subcommands used for existence checks.
type runtime struct {
	bin               string
	imageCheckCmd     []string // e.g. ["image", "inspect"] for docker
	containerCheckCmd []string // e.g. ["container", "inspect"] for docker
	exec              executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Pull(image string, progress io.Writer) error {
	if err := r.exec.RunPiped(r.bin, []string{"pull", image}, nil, progress); err != nil {
		return fmt.Errorf("pulling %s with %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Running(name string) bool {
	args := make([]string, 0, len(r.containerCheckCmd)+1)
	args = append(args, r.containerCheckCmd...)
	args = append(args, name)
	return r.exec.RunSilent(r.bin, args...) == nil
}

func (r *runtime) ServeModel(name, image string, port int) error {
	args := []string{
		"run", "-d", "--rm",
		"--name", name,
		"-p", strconv.Itoa(port) + ":11434",
		"-v", name + "-models:/root/.ollama",
		image,
	}
	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("starting %s container %s: %w", r.bin, name, err)
	}
	return nil
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:               binDocker,
		imageCheckCmd:     []string{"image", "inspect"},
		containerCheckCmd: []string{"container", "inspect"},
		exec:              exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:               binPodman,
		imageCheckCmd:     []string{"image", "exists"},
		containerCheckCmd: []string{"container", "exists"},
		exec:              exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}
