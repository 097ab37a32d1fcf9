package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/radialkb/internal/model"
	"github.com/verte-zerg/radialkb/internal/protocol"
)

const defaultClientTimeout = 2 * time.Second

var (
	clientSocket  string
	clientTimeout time.Duration
)

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&clientSocket, "socket", "", "daemon unix socket path")
	cmd.Flags().DurationVar(&clientTimeout, "timeout", defaultClientTimeout, "per-request timeout")
}

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send [json...]",
		Short: "Send raw request lines to the daemon and print replies",
		Long:  "Each argument is one request line. Without arguments, lines are read from stdin.",
		RunE:  runSendCmd,
	}
	addClientFlags(cmd)
	return cmd
}

func runSendCmd(cmd *cobra.Command, args []string) error {
	c, err := dialDaemon(cmd)
	if err != nil {
		return err
	}
	defer c.close()

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		for _, line := range args {
			if err := c.relay(out, line); err != nil {
				return err
			}
		}
		return nil
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if interactive {
			logErrf("> ")
		}
		if !scanner.Scan() {
			if interactive {
				logErrln()
			}
			break
		}
		if err := c.relay(out, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	return nil
}

func newCtlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ctl <show|hide|cancel|space|backspace|enter|tab|escape|char C>",
		Short: "Send one control request to the daemon",
		Args:  cobra.RangeArgs(1, 2),
		ValidArgs: []string{
			"show", "hide", "cancel", "space", "backspace", "enter", "tab", "escape", "char",
		},
		RunE: runCtlCmd,
	}
	addClientFlags(cmd)
	return cmd
}

func runCtlCmd(cmd *cobra.Command, args []string) error {
	ev, err := ctlEvent(args)
	if err != nil {
		return err
	}
	line, err := protocol.Encode(ev)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	c, err := dialDaemon(cmd)
	if err != nil {
		return err
	}
	defer c.close()

	reply, err := c.roundTrip(string(line))
	if err != nil {
		return err
	}
	if _, err := protocol.DecodeReply([]byte(reply)); err != nil {
		return err
	}
	return nil
}

// ctlEvent maps ctl arguments to a request.
func ctlEvent(args []string) (protocol.Event, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing control name")
	}
	name := strings.ToLower(args[0])
	if name == "char" {
		if len(args) != 2 {
			return nil, fmt.Errorf("char needs exactly one character")
		}
		runes := []rune(args[1])
		if len(runes) != 1 {
			return nil, fmt.Errorf("char needs exactly one character, got %q", args[1])
		}
		return protocol.CommitChar{Char: runes[0]}, nil
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("%s takes no argument", name)
	}
	switch name {
	case "show":
		return protocol.UIShow{}, nil
	case "hide":
		return protocol.UIHide{}, nil
	case "cancel":
		return protocol.ActionRequest{Action: model.ActionCancel}, nil
	}
	action := model.Action(name)
	switch action {
	case model.ActionSpace, model.ActionBackspace, model.ActionEnter, model.ActionTab, model.ActionEscape:
		return protocol.ActionRequest{Action: action}, nil
	}
	return nil, fmt.Errorf("unknown control %q", args[0])
}

type daemonConn struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

func dialDaemon(cmd *cobra.Command) (*daemonConn, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	applyStringFlag(cmd, "socket", &settings.SocketPath, clientSocket)
	conn, err := net.DialTimeout("unix", settings.SocketPath, clientTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to reach daemon at %s: %w", settings.SocketPath, err)
	}
	return &daemonConn{conn: conn, reader: bufio.NewReader(conn), timeout: clientTimeout}, nil
}

// roundTrip writes one request line and returns the reply line without its
// newline.
func (c *daemonConn) roundTrip(line string) (string, error) {
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return "", fmt.Errorf("failed to set deadline: %w", err)
	}
	if _, err := io.WriteString(c.conn, line+"\n"); err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	reply, err := c.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read reply: %w", err)
	}
	return strings.TrimRight(reply, "\n"), nil
}

// relay sends one raw line and prints the reply. Blank lines are skipped.
func (c *daemonConn) relay(out io.Writer, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	reply, err := c.roundTrip(line)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, reply); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (c *daemonConn) close() {
	if err := c.conn.Close(); err != nil {
		logErrf("failed to close connection: %v\n", err)
	}
}
