// Package cli wires the tcpbctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtzgroup/tcpb-client/internal/config"
	"github.com/mtzgroup/tcpb-client/internal/logging"
	"github.com/mtzgroup/tcpb-client/internal/protocol"
	"github.com/mtzgroup/tcpb-client/internal/xyz"
	"github.com/mtzgroup/tcpb-client/pkg/tcpb"
)

type rootFlags struct {
	configPath   string
	host         string
	port         int
	interval     time.Duration
	method       string
	basis        string
	charge       int
	multiplicity int
	unrestricted bool
	bohr         bool
}

func BuildCLI() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "tcpbctl",
		Short: "Talk to a TeraChem protocol buffer server",
		Long: "tcpbctl submits quantum chemistry jobs to a running compute server\n" +
			"over its binary socket protocol and prints the results.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.ConfigureRuntime()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "TOML config file")
	pf.StringVar(&flags.host, "host", "", "server host (overrides config)")
	pf.IntVar(&flags.port, "port", 0, "server port (overrides config)")
	pf.DurationVar(&flags.interval, "interval", 0, "poll interval (overrides config)")

	jobFlags := func(cmd *cobra.Command) {
		f := cmd.Flags()
		f.StringVarP(&flags.method, "method", "m", "pbe0", "electronic structure method")
		f.StringVarP(&flags.basis, "basis", "b", "6-31g", "basis set")
		f.IntVar(&flags.charge, "charge", 0, "total molecular charge")
		f.IntVar(&flags.multiplicity, "multiplicity", 1, "spin multiplicity")
		f.BoolVar(&flags.unrestricted, "unrestricted", false, "force an unrestricted calculation")
		f.BoolVar(&flags.bohr, "bohr", false, "coordinates in the XYZ file are in Bohr")
	}

	available := &cobra.Command{
		Use:   "available",
		Short: "Check whether the server can take a job right now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAvailable(cmd, flags)
		},
	}

	energy := &cobra.Command{
		Use:   "energy <geometry.xyz>",
		Short: "Run a single point energy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, flags, args[0], protocol.RunEnergy, false)
		},
	}
	jobFlags(energy)

	gradient := &cobra.Command{
		Use:   "gradient <geometry.xyz>",
		Short: "Run an energy gradient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, flags, args[0], protocol.RunGradient, false)
		},
	}
	jobFlags(gradient)

	forces := &cobra.Command{
		Use:   "forces <geometry.xyz>",
		Short: "Run a gradient and print atomic forces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, flags, args[0], protocol.RunGradient, true)
		},
	}
	jobFlags(forces)

	root.AddCommand(available, energy, gradient, forces)
	return root
}

func resolveConfig(flags *rootFlags) (config.ClientConfig, error) {
	cfg := config.DefaultClientConfig()
	if flags.configPath != "" {
		loaded, err := config.LoadClientConfig(flags.configPath)
		if err != nil {
			return config.ClientConfig{}, err
		}
		cfg = loaded
	}
	if flags.host != "" {
		cfg.Host = flags.host
	}
	if flags.port != 0 {
		cfg.Port = flags.port
	}
	if flags.interval != 0 {
		cfg.PollInterval = config.Duration(flags.interval)
	}
	return cfg, config.ValidateClientConfig(cfg)
}

func dial(flags *rootFlags) (*tcpb.Conn, config.ClientConfig, error) {
	cfg, err := resolveConfig(flags)
	if err != nil {
		return nil, config.ClientConfig{}, err
	}
	opts := tcpb.DefaultOptions(cfg.Host, cfg.Port)
	opts.SendTimeout = cfg.SendTimeout.Std()
	opts.RecvTimeout = cfg.RecvTimeout.Std()
	if cfg.MaxPayloadBytes != 0 {
		opts.MaxPayloadBytes = cfg.MaxPayloadBytes
	}
	log := logging.New("tcpbctl")
	opts.Logger = &log
	conn, err := tcpb.NewConn(opts)
	if err != nil {
		return nil, config.ClientConfig{}, err
	}
	if err := conn.Dial(); err != nil {
		return nil, config.ClientConfig{}, err
	}
	return conn, cfg, nil
}

func runAvailable(cmd *cobra.Command, flags *rootFlags) error {
	conn, _, err := dial(flags)
	if err != nil {
		return err
	}
	defer conn.Close()

	client := tcpb.NewClient(conn)
	ok, err := client.IsAvailable()
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(cmd.OutOrStdout(), "available")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "busy")
	return nil
}

func runJob(cmd *cobra.Command, flags *rootFlags, path string, run protocol.RunType, asForces bool) error {
	geom, err := xyz.Read(path)
	if err != nil {
		return err
	}

	b := tcpb.NewJobBuilder()
	b.SetAtoms(geom.Atoms)
	b.SetCharge(flags.charge)
	b.SetSpinMultiplicity(flags.multiplicity)
	closed := flags.multiplicity == 1 && !flags.unrestricted
	b.SetClosedShell(closed)
	b.SetRestricted(closed)
	if err := b.SetMethod(flags.method); err != nil {
		return err
	}
	b.SetBasis(flags.basis)

	unit := protocol.UnitAngstrom
	if flags.bohr {
		unit = protocol.UnitBohr
	}
	req, err := b.Build(run, geom.Coords, unit)
	if err != nil {
		return err
	}

	conn, cfg, err := dial(flags)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := tcpb.NewClient(conn)
	res, err := client.Compute(ctx, req, cfg.PollInterval.Std())
	if err != nil {
		return err
	}
	return printResult(cmd, geom, res, run, asForces)
}

func printResult(cmd *cobra.Command, geom xyz.Geometry, res *tcpb.Result, run protocol.RunType, asForces bool) error {
	out := cmd.OutOrStdout()
	if e, ok := res.Energy(); ok {
		fmt.Fprintf(out, "energy: %.10f hartree\n", e)
	}
	if run != protocol.RunGradient {
		return nil
	}
	vec := res.Gradient()
	label := "gradient"
	if asForces {
		vec = res.Forces()
		label = "forces"
	}
	return printVector(out, geom.Atoms, vec, label)
}

// printVector writes one row of components per atom. The vector must
// carry exactly three components per atom; anything else means the
// server reply does not match the submitted geometry.
func printVector(w io.Writer, atoms []string, vec []float64, label string) error {
	if len(vec) != 3*len(atoms) {
		return fmt.Errorf("%s has %d components, want %d for %d atoms",
			label, len(vec), 3*len(atoms), len(atoms))
	}
	fmt.Fprintf(w, "%s (hartree/bohr):\n", label)
	for i, sym := range atoms {
		c := vec[i*3 : i*3+3]
		fmt.Fprintf(w, "  %-2s  %14.10f %14.10f %14.10f\n", sym, c[0], c[1], c[2])
	}
	return nil
}

func Run() {
	if err := BuildCLI().Execute(); err != nil {
		os.Exit(1)
	}
}
