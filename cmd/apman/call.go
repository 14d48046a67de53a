package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/blackcoderx/apman/pkg/core"
	"github.com/blackcoderx/apman/pkg/storage"
	"github.com/blackcoderx/apman/pkg/transport"
	"github.com/blackcoderx/apman/pkg/tui"
)

var (
	callData     string
	callDataFile string
	callHeaders  []string
	callVars     []string
	callCopy     bool
	callPrompt   bool
	callSave     string
	callFrom     string
	callLegacy   bool
	callNoRecord bool
)

func init() {
	f := callCmd.Flags()
	f.StringVarP(&callData, "data", "d", "", "call data as JSON")
	f.StringVar(&callDataFile, "data-file", "", "read call data from a JSON file")
	f.StringArrayVarP(&callHeaders, "header", "H", nil, "extra header for this call (\"Name: value\")")
	f.StringArrayVar(&callVars, "var", nil, "override a collection variable (name=value)")
	f.BoolVar(&callCopy, "copy", false, "copy the response payload to the clipboard")
	f.BoolVarP(&callPrompt, "prompt", "p", false, "pick the operation and enter data interactively")
	f.StringVar(&callSave, "save", "", "save the call data under this name")
	f.StringVar(&callFrom, "from", "", "replay a saved call")
	f.BoolVar(&callLegacy, "legacy-body", false, "send the whole data object as the body without validation")
	f.BoolVar(&callNoRecord, "no-history", false, "do not append the call to the history file")

	rootCmd.AddCommand(callCmd)
}

var callCmd = &cobra.Command{
	Use:   "call [operation]",
	Short: "Call one operation of the collection",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCall,
}

func runCall(cmd *cobra.Command, args []string) error {
	ws := workspaceDir()

	vars, err := loadVariables()
	if err != nil {
		return err
	}
	overrides, err := parseAssignments(callVars, "=")
	if err != nil {
		return err
	}
	for k, v := range overrides {
		vars[k] = v
	}

	var saved *storage.SavedCall
	if callFrom != "" {
		if saved, err = storage.LoadCall(ws, callFrom); err != nil {
			return fmt.Errorf("failed to load call '%s': %w", callFrom, err)
		}
	}

	opts := []core.Option{}
	if !callNoRecord {
		opts = append(opts, core.WithCallObserver(historyRecorder(ws, newLogger())))
	}
	if callLegacy {
		opts = append(opts, core.WithLegacyBody())
	}

	client, err := loadClient(vars, opts...)
	if err != nil {
		return err
	}

	name, err := operationName(client, args, saved, callPrompt)
	if err != nil {
		return err
	}
	op, ok := client.Operation(name)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnknownOperation, name)
	}

	data, err := callInput(op, callData, callDataFile, callPrompt, saved)
	if err != nil {
		return err
	}

	headers, err := parseAssignments(callHeaders, ":")
	if err != nil {
		return err
	}
	if saved != nil {
		for k, v := range saved.Headers {
			if _, ok := headers[k]; !ok {
				headers[k] = v
			}
		}
	}
	for k, v := range headers {
		client.AddHeader(k, v)
	}

	if callSave != "" {
		err := storage.SaveCall(ws, callSave, storage.SavedCall{Operation: name, Data: data, Headers: headers})
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	do := func(ctx context.Context) (*transport.Response, error) {
		return op.Do(ctx, data)
	}

	var resp *transport.Response
	if isatty.IsTerminal(os.Stderr.Fd()) && !verbose {
		resp, err = tui.RunCall(ctx, os.Stderr, name, do)
	} else {
		resp, err = do(ctx)
	}

	out := cmd.OutOrStdout()
	var statusErr *transport.StatusError
	if errors.As(err, &statusErr) {
		fmt.Fprintln(out, tui.StatusBadge(statusErr.StatusCode, statusErr.Status))
		fmt.Fprintln(out, tui.HighlightJSON(statusErr.Body, renderWidth()))
		return err
	}
	if err != nil {
		return err
	}

	return printResponse(out, resp)
}

func operationName(client *core.Client, args []string, saved *storage.SavedCall, prompt bool) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case saved != nil && saved.Operation != "":
		return saved.Operation, nil
	case prompt:
		return tui.PromptOperation(client.Names())
	}
	return "", fmt.Errorf("no operation given: pass a name, --from or --prompt")
}

// callInput picks the call data: explicit JSON first, then the interactive
// prompt, then a saved call. No input at all is an empty object.
func callInput(op *core.Operation, jsonData, dataFile string, prompt bool, saved *storage.SavedCall) (core.Data, error) {
	raw := []byte(jsonData)
	if dataFile != "" {
		b, err := os.ReadFile(dataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		raw = b
	}

	if len(raw) > 0 {
		var data core.Data
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("failed to parse call data: %w", err)
		}
		if data == nil {
			data = core.Data{}
		}
		return data, nil
	}

	if prompt {
		data, err := tui.PromptData(op.Shape)
		if err != nil {
			return nil, err
		}
		return core.Data(data), nil
	}

	if saved != nil && saved.Data != nil {
		return core.Data(saved.Data), nil
	}
	return core.Data{}, nil
}

func printResponse(out io.Writer, resp *transport.Response) error {
	fmt.Fprintln(out, tui.StatusBadge(resp.StatusCode, resp.Status)+" "+
		tui.DimStyle.Render(resp.Duration.String()))
	if body := tui.RenderPayload(resp.Data, renderWidth()); body != "" {
		fmt.Fprintln(out, body)
	}

	if !callCopy {
		return nil
	}
	text, ok := resp.Data.(string)
	if !ok {
		b, err := json.MarshalIndent(resp.Data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		text = string(b)
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	fmt.Fprintln(out, tui.DimStyle.Render("copied to clipboard"))
	return nil
}

// historyRecorder appends every finished call to the workspace history.
// Calls made outside an initialized workspace are not recorded.
func historyRecorder(ws string, log *slog.Logger) func(context.Context, core.CallInfo) {
	return func(ctx context.Context, info core.CallInfo) {
		if _, err := os.Stat(ws); err != nil {
			return
		}
		entry := storage.HistoryEntry{
			Operation:  info.Operation,
			Method:     info.Method,
			URL:        info.URL,
			Status:     info.Status,
			DurationMS: info.Duration.Milliseconds(),
		}
		if info.Err != nil {
			entry.Error = info.Err.Error()
		}
		if _, err := storage.AppendHistory(ws, entry); err != nil {
			log.Warn("history.append", "error", err)
		}
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
