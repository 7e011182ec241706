// Package programmgmt implements the Program-Management Executor
// (spec.md §4.6): stages a program file to a local directory, issues
// SelectMainProgram, and reports Stat/Exception back to the control plane.
package programmgmt

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/okuma-coupler/bridge/internal/domain"
	"github.com/okuma-coupler/bridge/internal/interfaces"
	"github.com/okuma-coupler/bridge/internal/middleware/logging"
)

// SessionAcquirer serializes calls into a machine's native session.
type SessionAcquirer interface {
	WithSession(machineName string, fn func(interfaces.NativeSession) error) error
}

// MachineConfigReader resolves a machine's IP for the staging path and its
// MachineId for crash-dump file names.
type MachineConfigReader interface {
	ReadMachineConfig(machineName string) (domain.Machine, error)
}

type Executor struct {
	sessions  SessionAcquirer
	config    MachineConfigReader
	cp        interfaces.ControlPlaneClient
	logger    *logging.Logger
	stagingRoot string
	crashDumpDir string
}

func New(sessions SessionAcquirer, config MachineConfigReader, cp interfaces.ControlPlaneClient, logger *logging.Logger) *Executor {
	return &Executor{
		sessions:     sessions,
		config:       config,
		cp:           cp,
		logger:       logger.WithPrefix("PROGRAMMGMT"),
		stagingRoot:  filepath.Join("C:", "temp"),
		crashDumpDir: ".",
	}
}

// Start runs the full workflow on the rising edge of Ctrl (spec.md §4.6
// steps 1-4). Crashes during the workflow are serialized into a diagnostic
// file; the result write-back still proceeds (spec.md §7 "Unexpected
// exceptions").
func (e *Executor) Start(ctx context.Context, machineName string) (err error) {
	machine, _ := e.config.ReadMachineConfig(machineName)

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("Unexpected error in ProgramManagement: %v", r)
			e.dumpCrash(machine.MachineID, msg)
			e.writeResult(ctx, machineName, msg)
			err = fmt.Errorf("programmgmt: %s", msg)
		}
	}()

	filepathParam, _ := e.cp.Read(ctx, domain.ProgramManagementNodeID(machineName, "Filepath"))
	idParam, _ := e.cp.Read(ctx, domain.ProgramManagementNodeID(machineName, "Id"))
	mainFile, _ := e.cp.Read(ctx, domain.ProgramManagementNodeID(machineName, "MainFile"))

	e.logger.Info("Starting program-management workflow", "machine", machineName, "id", idParam.String, "mainFile", mainFile.String)

	if stageErr := e.stage(machine.IPAddress, filepathParam.String); stageErr != nil {
		e.logger.Error("Staging failed", "machine", machineName, "id", idParam.String, "error", stageErr)
		e.writeResult(ctx, machineName, stageErr.Error())
		return stageErr
	}

	if mainFile.String == "" {
		msg := "MainFile is empty"
		e.logger.Warn(msg, "machine", machineName, "id", idParam.String)
		e.writeResult(ctx, machineName, msg)
		return fmt.Errorf("programmgmt: %s", msg)
	}

	cmdErr := e.sessions.WithSession(machineName, func(session interfaces.NativeSession) error {
		result, errMessage, err := session.SelectMainProgram(mainFile.String, "", "", 0)
		if err != nil {
			return err
		}
		if result != 0 {
			if errMessage == "" {
				errMessage = fmt.Sprintf("SelectMainProgram returned non-zero result %d", result)
			}
			return fmt.Errorf("%s", errMessage)
		}
		return nil
	})

	msg := ""
	if cmdErr != nil {
		e.logger.Error("SelectMainProgram failed", "machine", machineName, "id", idParam.String, "error", cmdErr)
		msg = cmdErr.Error()
	}
	e.writeResult(ctx, machineName, msg)
	return cmdErr
}

// stage ensures the per-machine staging directory exists and copies the
// source file into it (spec.md §4.6 step 2). An empty filepath is not an
// error: the copy is skipped and a warning recorded.
func (e *Executor) stage(machineIP, srcPath string) error {
	dir := filepath.Join(e.stagingRoot, machineIP)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create staging directory %q: %w", dir, err)
	}

	if srcPath == "" {
		e.logger.Warn("Filepath is empty, skipping copy", "ip", machineIP)
		return nil
	}

	if _, err := os.Stat(srcPath); os.IsNotExist(err) {
		return fmt.Errorf("File copy failed: Source file does not exist - %s", srcPath)
	}

	dst := filepath.Join(dir, filepath.Base(srcPath))
	return copyFile(srcPath, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("File copy failed: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("File copy failed: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("File copy failed: %w", err)
	}
	return nil
}

// writeResult always writes Stat true; Exception carries msg, empty on
// success (spec.md §4.6 step 4).
func (e *Executor) writeResult(ctx context.Context, machineName, msg string) {
	e.cp.Write(ctx, domain.ProgramManagementNodeID(machineName, "Stat"), domain.BoolValue(true))
	e.cp.Write(ctx, domain.ProgramManagementNodeID(machineName, "Exception"), domain.StringValue(msg))
}

// Cancel handles the falling edge of Ctrl: write Stat := false and do
// nothing else (spec.md §4.6 "On the falling edge of Ctrl").
func (e *Executor) Cancel(ctx context.Context, machineName string) error {
	e.cp.Write(ctx, domain.ProgramManagementNodeID(machineName, "Stat"), domain.BoolValue(false))
	return nil
}

// dumpCrash serializes a diagnostic file named
// Exception_<yyyy-MM-dd_HH-mm-ss>_<machineId>.txt (spec.md §6.5, §7).
func (e *Executor) dumpCrash(machineID, msg string) {
	name := fmt.Sprintf("Exception_%s_%s.txt", time.Now().Format("2006-01-02_15-04-05"), machineID)
	path := filepath.Join(e.crashDumpDir, name)
	if err := os.WriteFile(path, []byte(msg), 0o644); err != nil {
		e.logger.Error("Failed to write crash dump", "path", path, "error", err)
	}
}
