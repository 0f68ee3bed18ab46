package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// binaries built by "do build", keyed by output name
var binaries = map[string]string{
	"server":    "./cmd/server",
	"repairctl": "./cmd/repairctl",
}

func BuildCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the server and repairctl binaries in parallel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildAll(outDir)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "bin", "output directory")
	return cmd
}

func buildAll(outDir string) error {
	err := os.MkdirAll(outDir, 0755)
	if err != nil {
		return err
	}

	var g errgroup.Group
	for name, pkg := range binaries {
		out := filepath.Join(outDir, name)
		g.Go(func() error {
			fmt.Println("==> Building", out)
			build := exec.Command("go", "build", "-trimpath", "-o", out, pkg)
			build.Env = append(os.Environ(), "CGO_ENABLED=0")
			build.Stdout = os.Stdout
			build.Stderr = os.Stderr
			if err := build.Run(); err != nil {
				return fmt.Errorf("build %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
