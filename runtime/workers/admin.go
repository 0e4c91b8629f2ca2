package workers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/process"

	"tcp-chat/domain"
	"tcp-chat/runtime"
)

// AdminConsole is the operator interface, local to the server process.
// Commands: status, broadcast, exit. It is layered on the Registry and has
// no concurrency concerns of its own beyond normal Registry locking.
type AdminConsole struct {
	log      *slog.Logger
	registry *runtime.Registry
	in       io.Reader
	out      io.Writer
	shutdown context.CancelFunc
}

func NewAdminConsole(log *slog.Logger, registry *runtime.Registry, in io.Reader, out io.Writer, shutdown context.CancelFunc) *AdminConsole {
	return &AdminConsole{log: log, registry: registry, in: in, out: out, shutdown: shutdown}
}

func (w *AdminConsole) Run(ctx context.Context) error {
	// Stdin reads cannot be interrupted, so a feeder goroutine turns them
	// into a channel we can select against the context.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(w.in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(w.out, "Enter admin command (type 'exit' to quit): ")
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "exit":
				w.log.Info("Shutting down server...")
				w.shutdown()
				return nil
			case "status":
				w.log.Info("Server is running and accepting connections.")
				w.printStatus()
			case "broadcast":
				fmt.Fprint(w.out, "Enter message to broadcast: ")
				select {
				case <-ctx.Done():
					return nil
				case message, ok := <-lines:
					if !ok {
						return nil
					}
					w.registry.BroadcastAll(domain.AdminBroadcast(message), false)
					fmt.Fprintln(w.out, "Broadcast complete.")
				}
			default:
				fmt.Fprintln(w.out, "Available commands: status, broadcast")
			}
		}
	}
}

func (w *AdminConsole) printStatus() {
	header := color.New(color.BgBlack, color.FgGreen).Render("  ====== Server status ======")
	fmt.Fprintln(w.out, header)

	if rss, cpu, status, err := selfStats(); err == nil {
		fmt.Fprintf(w.out, "Process: %s | CPU %.1f%% | RSS %d MB\n", status, cpu, rss>>20)
	} else {
		w.log.Warn("Failed to collect self stats", "err", err)
	}

	sessions := w.registry.SessionsSnapshot()
	fmt.Fprintf(w.out, "Connected clients: %d\n", len(sessions))

	table := newConsoleTable(w.out, []string{"Id", "Name", "Remote", "Room"})
	for _, s := range sessions {
		room := "lobby"
		if id, ok := s.Room(); ok {
			room = strconv.Itoa(int(id))
		}
		table.Append([]string{strconv.Itoa(int(s.ID)), s.Name(), s.RemoteAddr, room})
	}
	table.Render()

	rooms := w.registry.RoomsSnapshot()
	fmt.Fprintf(w.out, "Open rooms: %d\n", len(rooms))

	roomTable := newConsoleTable(w.out, []string{"Id", "Members", "Full", "Users"})
	for _, r := range rooms {
		roomTable.Append([]string{
			strconv.Itoa(int(r.ID)),
			strconv.Itoa(r.Members),
			strconv.FormatBool(r.Full),
			fmt.Sprint(r.Names),
		})
	}
	roomTable.Render()
}

func newConsoleTable(out io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

// selfStats retrieves technical metrics (memory, CPU, and OS status) for this process.
func selfStats() (uint64, float64, string, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, 0, "", err
	}
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, "", err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, "", err
	}
	status, err := p.Status()
	if err != nil {
		return 0, 0, "", err
	}
	return memInfo.RSS, cpuPercent, status, nil
}
