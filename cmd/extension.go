package cmd

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

// EnvVerbose passes the -v flag to extensions. The other global flags are passed as
// the FCS_* variables read by LoadConfig.
const EnvVerbose = "FCS_VERBOSE"

// RunExtension attempts to find and execute an external fcs-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found or executed.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "fcs-" + subcommand

	// Look for the external command in PATH
	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		log.Printf("External command %q not found in PATH: %v", externalCmdName, err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = extensionEnv()

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
				return true, status.ExitStatus()
			}
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1 // Indicate that an attempt was made, but it failed
	}
	return true, 0
}

// extensionEnv returns the environment of an extension: the current one plus the
// resolved settings, so that extensions share the configuration of fcs.
func extensionEnv() []string {
	env := os.Environ()
	env = append(env, EnvVerbose+"="+strconv.FormatBool(*Verbose))
	cfg, err := settings()
	if err != nil {
		log.Printf("extension started without settings: %v", err)
		return env
	}
	env = append(env,
		EnvBackendURL+"="+cfg.Backend.URL,
		EnvTimeout+"="+cfg.Backend.Timeout.String(),
		EnvCacheDir+"="+cfg.Backend.Cache,
		EnvStyle+"="+cfg.Display.Style,
		EnvWidth+"="+strconv.Itoa(cfg.Display.Width),
		EnvGeminiModel+"="+cfg.Gemini.Model,
	)
	return env
}
