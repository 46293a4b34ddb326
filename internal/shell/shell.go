package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	"ovsnett/internal/nodes"
	"ovsnett/internal/ovsdb"
	"ovsnett/internal/topology"
)

// InspectFunc returns what the switch daemon reports for its bridges
type InspectFunc func(ctx context.Context) ([]ovsdb.BridgeStatus, error)

type Option func(*Shell)

func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(s *Shell) {
		s.in = in
		s.out = out
		s.errOut = errOut
	}
}

// WithInspector enables the live part of "dump".
func WithInspector(fn InspectFunc) Option {
	return func(s *Shell) {
		s.inspect = fn
	}
}

// WithSignals hands the shell the process signals. An interrupt while a
// command runs stops that command only. An interrupt at the prompt, or
// any other signal, ends the shell.
func WithSignals(ch <-chan os.Signal) Option {
	return func(s *Shell) {
		s.signals = ch
	}
}

func WithLogger(log logr.Logger) Option {
	return func(s *Shell) {
		s.log = log
	}
}

// Shell is the interactive prompt handed a running network
type Shell struct {
	net     *topology.Network
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	inspect InspectFunc
	signals <-chan os.Signal
	log     logr.Logger

	reader lineReader
}

func New(net *topology.Network, opts ...Option) *Shell {
	s := &Shell{
		net:    net,
		in:     strings.NewReader(""),
		out:    io.Discard,
		errOut: io.Discard,
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type readResult struct {
	line string
	err  error
}

// Run reads and executes commands until exit, end of input, a signal at the
// prompt or ctx is cancelled. Command failures are printed and do not stop
// the shell.
func (s *Shell) Run(ctx context.Context) error {
	reader, err := newLineReader(s.in, s.out)
	if err != nil {
		return err
	}
	s.reader = reader
	defer reader.close()

	fmt.Fprintln(s.reader.writer(), "*** Starting CLI:")

	// Lines are read on demand so a child process never races the
	// reader for stdin.
	next := make(chan struct{})
	results := make(chan readResult, 1)
	go func() {
		for range next {
			line, err := reader.ReadLine()
			results <- readResult{line: line, err: err}
			if err != nil {
				return
			}
		}
	}()
	defer close(next)

	for {
		select {
		case next <- struct{}{}:
		case <-ctx.Done():
			return nil
		case sig := <-s.signals:
			s.log.V(1).Info("Leaving CLI", "signal", sig.String())
			return nil
		}

		var res readResult
		select {
		case res = <-results:
		case <-ctx.Done():
			fmt.Fprintln(s.reader.writer())
			return nil
		case sig := <-s.signals:
			fmt.Fprintln(s.reader.writer())
			s.log.V(1).Info("Leaving CLI", "signal", sig.String())
			return nil
		}

		if errors.Is(res.err, io.EOF) {
			fmt.Fprintln(s.reader.writer())
			return nil
		}
		if res.err != nil {
			return fmt.Errorf("read command: %w", res.err)
		}

		quit, err := s.runCommand(ctx, res.line)
		if err != nil {
			fmt.Fprintf(s.reader.writer(), "*** %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// runCommand executes line under its own context, which a signal received
// meanwhile cancels. Only an interrupt keeps the shell running afterwards.
func (s *Shell) runCommand(ctx context.Context, line string) (quit bool, err error) {
	cmdCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	leave := make(chan bool, 1)
	go func() {
		select {
		case sig := <-s.signals:
			s.log.V(2).Info("Interrupting command", "signal", sig.String(), "line", line)
			cancel()
			leave <- sig != os.Interrupt
		case <-done:
			leave <- false
		}
	}()

	quit, err = s.Execute(cmdCtx, line)
	close(done)
	if <-leave {
		quit = true
	}
	if err != nil && cmdCtx.Err() != nil && ctx.Err() == nil {
		err = fmt.Errorf("interrupted: %w", err)
	}
	return quit, err
}

// Execute runs one command line. quit reports whether the operator asked
// to leave.
func (s *Shell) Execute(ctx context.Context, line string) (quit bool, err error) {
	if s.reader == nil {
		s.reader = &plainReader{out: s.out}
	}

	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}

	s.log.V(3).Info("Shell command", "line", line)

	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "exit", "quit":
		return true, nil
	case "help", "?":
		s.help()
	case "nodes":
		s.nodes()
	case "net":
		s.netInfo()
	case "links":
		s.links()
	case "intfs":
		s.intfs()
	case "attachments":
		s.attachments()
	case "dump":
		return false, s.dump(ctx)
	case "attach":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: attach <host>")
		}
		return false, s.attach(args[0])
	default:
		host, ok := s.net.Host(cmd)
		if !ok {
			return false, fmt.Errorf("unknown command: %s", cmd)
		}
		if len(args) == 0 {
			return false, fmt.Errorf("usage: %s <command> [args...]", cmd)
		}
		return false, s.exec(ctx, host, args)
	}
	return false, nil
}

func (s *Shell) help() {
	w := s.reader.writer()
	fmt.Fprintln(w, "Documented commands:")
	fmt.Fprintln(w, "  help                 show this message")
	fmt.Fprintln(w, "  nodes                list nodes")
	fmt.Fprintln(w, "  net                  list links per node")
	fmt.Fprintln(w, "  links                list links")
	fmt.Fprintln(w, "  intfs                list interfaces per node")
	fmt.Fprintln(w, "  attachments          list hardware interfaces bound to switches")
	fmt.Fprintln(w, "  dump                 show node details and switch state")
	fmt.Fprintln(w, "  attach <host>        open a shell inside a host")
	fmt.Fprintln(w, "  <host> <cmd...>      run a command inside a host")
	fmt.Fprintln(w, "  exit | quit          stop the network and leave")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Host names in a command are replaced by their address, e.g. h1 ping -c1 h2")
}

func (s *Shell) nodeNames() []string {
	var names []string
	for _, h := range s.net.Hosts() {
		names = append(names, h.GetName())
	}
	for _, sw := range s.net.Switches() {
		names = append(names, sw.GetName())
	}
	return names
}

func (s *Shell) nodes() {
	fmt.Fprintln(s.reader.writer(), "available nodes are:")
	fmt.Fprintln(s.reader.writer(), strings.Join(s.nodeNames(), " "))
}

// peers maps every interface of the network to the interface at the other
// end of its link.
func (s *Shell) peers() map[string]nodes.Endpoint {
	peers := map[string]nodes.Endpoint{}
	for _, l := range s.net.Links() {
		a, b := l.Endpoints()
		peers[a.Interface] = b
		peers[b.Interface] = a
	}
	return peers
}

func (s *Shell) netInfo() {
	w := s.reader.writer()
	peers := s.peers()
	attached := map[string]string{}
	for _, a := range s.net.Attachments() {
		attached[a.Interface] = a.Switch
	}

	printNode := func(n nodes.Node) {
		parts := []string{n.GetName()}
		for _, port := range n.Ports() {
			if peer, ok := peers[port]; ok {
				parts = append(parts, port+":"+peer.Interface)
			} else if _, ok := attached[port]; ok {
				parts = append(parts, port+":hw")
			}
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	}

	for _, h := range s.net.Hosts() {
		printNode(h)
	}
	for _, sw := range s.net.Switches() {
		printNode(sw)
	}
}

func (s *Shell) links() {
	for _, l := range s.net.Links() {
		a, b := l.Endpoints()
		fmt.Fprintf(s.reader.writer(), "%s<->%s\n", a.Interface, b.Interface)
	}
}

func (s *Shell) intfs() {
	w := s.reader.writer()
	for _, h := range s.net.Hosts() {
		fmt.Fprintf(w, "%s: %s\n", h.GetName(), strings.Join(h.Ports(), ","))
	}
	for _, sw := range s.net.Switches() {
		fmt.Fprintf(w, "%s: %s\n", sw.GetName(), strings.Join(sw.Ports(), ","))
	}
}

func (s *Shell) attachments() {
	w := s.reader.writer()
	attachments := s.net.Attachments()
	if len(attachments) == 0 {
		fmt.Fprintln(w, "no hardware interfaces attached")
		return
	}
	for _, a := range attachments {
		fmt.Fprintf(w, "%s -> %s (ordinal %d)\n", a.Interface, a.Switch, a.Ordinal)
	}
}

func (s *Shell) dump(ctx context.Context) error {
	w := s.reader.writer()
	target := s.net.Binding().Target()

	for _, h := range s.net.Hosts() {
		ns := ""
		if h.Namespace() != nil {
			ns = h.Namespace().Path
		}
		fmt.Fprintf(w, "<Host %s: %s ip=%s netns=%s>\n", h.GetName(), strings.Join(h.Ports(), ","), h.IP(), ns)
	}
	for _, sw := range s.net.Switches() {
		fmt.Fprintf(w, "<OVSSwitch %s: %s controller=%s>\n", sw.GetName(), strings.Join(sw.Ports(), ","), target)
	}
	fmt.Fprintf(w, "<RemoteController c0: %s protocol=%s>\n", target, s.net.Binding().Protocol)

	if s.inspect == nil {
		return nil
	}

	statuses, err := s.inspect(ctx)
	if err != nil {
		return fmt.Errorf("inspect switches: %w", err)
	}

	own := map[string]bool{}
	for _, sw := range s.net.Switches() {
		own[sw.GetName()] = true
	}
	sort.SliceStable(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	fmt.Fprintln(w, "*** Switch state:")
	for _, st := range statuses {
		if !own[st.Name] {
			continue
		}
		var controllers []string
		for _, c := range st.Controllers {
			state := "disconnected"
			if c.Connected {
				state = "connected"
			}
			controllers = append(controllers, c.Target+" "+state)
		}
		fmt.Fprintf(w, "%s: fail_mode=%s protocols=%s controllers=[%s] ports=%s\n",
			st.Name, st.FailMode, strings.Join(st.Protocols, ","), strings.Join(controllers, ", "), strings.Join(st.Ports, ","))
	}
	return nil
}

// hostAddresses maps host names to their address without prefix length
func (s *Shell) hostAddresses() map[string]string {
	addrs := map[string]string{}
	for _, h := range s.net.Hosts() {
		if h.IP() == "" {
			continue
		}
		ip, _, _ := strings.Cut(h.IP(), "/")
		addrs[h.GetName()] = ip
	}
	return addrs
}

func (s *Shell) exec(ctx context.Context, host nodes.Host, args []string) error {
	addrs := s.hostAddresses()
	cmd := make([]string, len(args))
	for i, arg := range args {
		if ip, ok := addrs[arg]; ok {
			arg = ip
		}
		cmd[i] = arg
	}

	if err := s.reader.suspend(); err != nil {
		return err
	}
	defer s.reader.resume()

	if err := host.Exec(ctx, cmd, nil, s.out, s.errOut); err != nil {
		return fmt.Errorf("%s: %w", host.GetName(), err)
	}
	return nil
}

func (s *Shell) attach(name string) error {
	host, ok := s.net.Host(name)
	if !ok {
		return &topology.UnknownNodeError{Name: name, Type: topology.NodeHost}
	}

	if err := s.reader.suspend(); err != nil {
		return err
	}
	defer s.reader.resume()

	return host.Shell(s.in, s.out, s.errOut)
}
