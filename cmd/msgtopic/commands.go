package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"msgbridge/internal/idl"
	"msgbridge/internal/messages"
	"msgbridge/internal/platform"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

// RootOptions are shared by every subcommand.
type RootOptions struct {
	Server        string // NATS URL of a running msgbridge
	Stream        string
	SubjectPrefix string
	Descriptors   string // optional descriptor document
	LogLevel      string
}

func NewRootOptions() *RootOptions {
	return &RootOptions{
		Server:        nats.DefaultURL,
		Stream:        "MSG",
		SubjectPrefix: "msg",
		LogLevel:      "warn",
	}
}

func NewRootCmd() *cobra.Command {
	opts := NewRootOptions()

	root := &cobra.Command{
		Use:          "msgtopic",
		Short:        "Inspect message types and publish or echo topics on a msgbridge bus.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			platform.InitLogger(platform.LogConfig{Level: opts.LogLevel, Format: "text", Output: cmd.ErrOrStderr()})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.Server, "server", "s", opts.Server, "NATS server URL")
	flags.StringVar(&opts.Stream, "stream", opts.Stream, "JetStream stream carrying topics")
	flags.StringVar(&opts.SubjectPrefix, "subject-prefix", opts.SubjectPrefix, "subject prefix topics are mapped under")
	flags.StringVarP(&opts.Descriptors, "descriptors", "d", opts.Descriptors, "JSON descriptor document with extra message types")
	flags.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "debug, info, warn or error")

	root.AddCommand(
		newTypesCmd(opts),
		newShowCmd(opts),
		newPubCmd(opts),
		newEchoCmd(opts),
	)
	return root
}

func newTypesCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List every known message type.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.catalog()
			if err != nil {
				return err
			}
			for _, n := range c.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newShowCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "show <type>",
		Short:   "Print the fields, constants and default value of a message type.",
		Example: "  msgtopic show sensor_msgs/msg/JointState",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.registry()
			if err != nil {
				return err
			}
			t, err := reg.Resolve(args[0])
			if err != nil {
				return err
			}
			return showType(cmd.OutOrStdout(), t)
		},
	}
}

func showType(w io.Writer, t *messages.MessageType) error {
	fmt.Fprintln(w, t.Name())
	for _, f := range t.Fields() {
		fmt.Fprintf(w, "  %s %s\n", f.Type, f.Name)
	}
	for _, c := range t.Schema().Constants {
		v, _ := t.Constant(c.Name)
		fmt.Fprintf(w, "  %s %s=%v\n", c.Type, c.Name, v)
	}
	def, err := json.Marshal(t.New())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "default: %s\n", def)
	return nil
}

func newPubCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "pub <type> <topic> <json>",
		Short:   "Validate a JSON value against a message type and publish it.",
		Example: "  msgtopic pub std_msgs/msg/Int8MultiArray /samples '{\"data\": [1, 2, 3]}'\n  msgtopic pub std_msgs/msg/Float64 /level '\"NaN\"'",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.registry()
			if err != nil {
				return err
			}
			t, err := reg.Resolve(args[0])
			if err != nil {
				return err
			}
			m, err := decodeValue(t, args[2])
			if err != nil {
				return err
			}

			b, closeFn, err := opts.bridge(reg)
			if err != nil {
				return err
			}
			defer closeFn()

			id, err := b.PublishMessage(cmd.Context(), args[1], m)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newEchoCmd(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "echo <type> <topic>",
		Short: "Print every message published on a topic as a JSON line.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := opts.registry()
			if err != nil {
				return err
			}
			b, closeFn, err := opts.bridge(reg)
			if err != nil {
				return err
			}
			defer closeFn()

			out := cmd.OutOrStdout()
			cc, err := b.SubscribeMessages(cmd.Context(), args[0], args[1], func(_ context.Context, _ string, m *messages.Instance) {
				if err := writeLine(out, m); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
			})
			if err != nil {
				return err
			}
			defer cc.Stop()

			<-cmd.Context().Done()
			return nil
		},
	}
}

// decodeValue parses a command-line value in the JSON form of t, so integers
// keep their precision and float fields accept "NaN", "Infinity" and
// "-Infinity".
func decodeValue(t *messages.MessageType, s string) (*messages.Instance, error) {
	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("parse value: invalid JSON %q", s)
	}
	return t.DecodeJSON([]byte(s))
}

// writeLine prints m in its JSON form followed by a newline.
func writeLine(w io.Writer, m *messages.Instance) error {
	data, err := m.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func (o *RootOptions) catalog() (*idl.Catalog, error) {
	c := idl.Builtins()
	if o.Descriptors != "" {
		if _, err := c.LoadDescriptorFile(o.Descriptors); err != nil {
			return nil, fmt.Errorf("load %s: %w", o.Descriptors, err)
		}
	}
	return c, nil
}

func (o *RootOptions) registry() (*messages.Registry, error) {
	c, err := o.catalog()
	if err != nil {
		return nil, err
	}
	return messages.NewRegistry(c), nil
}

// bridge connects to the bus. The stream is expected to exist already.
func (o *RootOptions) bridge(reg *messages.Registry) (*platform.Bridge, func(), error) {
	bus, err := platform.ConnectBus(o.Server, "msgtopic")
	if err != nil {
		return nil, nil, err
	}
	cfg := platform.BridgeConfig{Stream: o.Stream, SubjectPrefix: o.SubjectPrefix}
	return platform.NewBridge(bus.JS, messages.NewMarshaler(reg), cfg), bus.Close, nil
}
