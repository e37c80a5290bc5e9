package main

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/chronodrachma/verushash/pkg/core/consensus"
	"github.com/chronodrachma/verushash/pkg/core/pbaas"
	"github.com/chronodrachma/verushash/pkg/metrics"
	"github.com/chronodrachma/verushash/pkg/miner"
	"github.com/chronodrachma/verushash/pkg/rpc"
	"github.com/chronodrachma/verushash/pkg/store"
	"github.com/chronodrachma/verushash/pkg/verushash"
)

var hashVariant string

var hashCmd = &cobra.Command{
	Use:   "hash HEX",
	Short: "Hash a buffer with one VerusHash variant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := consensus.ParseVariant(hashVariant)
		if err != nil {
			return err
		}
		data, err := decodeHexArg(args[0])
		if err != nil {
			return err
		}
		engines, err := verushash.New()
		if err != nil {
			return err
		}
		defer engines.Close()

		if v == consensus.VariantV2b2 {
			digest, decision, err := engines.HashWithDecision(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", digest.ReverseHex(), decision)
			return nil
		}
		digest, err := engines.HashVariant(v, data)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), digest.ReverseHex())
		return nil
	},
}

var canonicalizeCmd = &cobra.Command{
	Use:   "canonicalize HEX",
	Short: "Verify a merged-mining header and print its canonical form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buf, err := decodeHexArg(args[0])
		if err != nil {
			return err
		}
		decision := pbaas.Prepare(buf)
		fmt.Fprintln(cmd.OutOrStdout(), decision)
		if decision == pbaas.Verified {
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(buf))
		}
		return nil
	},
}

var sealCmd = &cobra.Command{
	Use:   "seal HEX",
	Short: "Write the pre-header commitment into the first chain descriptor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buf, err := decodeHexArg(args[0])
		if err != nil {
			return err
		}
		if err := pbaas.Seal(buf); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(buf))
		return nil
	},
}

var (
	benchThreads  int
	benchDuration time.Duration
	benchTemplate string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Scan nonces over a template and report the hash rate",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := consensus.ParseVariant(cfg.Miner.Variant)
		if err != nil {
			return err
		}
		threads := cfg.Miner.Threads
		if cmd.Flags().Changed("threads") {
			threads = benchThreads
		}

		template := defaultTemplate()
		if benchTemplate != "" {
			if template, err = decodeHexArg(benchTemplate); err != nil {
				return err
			}
		}

		engines, err := verushash.New()
		if err != nil {
			return err
		}
		defer engines.Close()

		m, err := miner.NewMiner(engines, v, template, threads, nil, logger)
		if err != nil {
			return err
		}
		m.Start()
		select {
		case <-time.After(benchDuration):
		case <-interrupted():
		}
		m.Stop()

		s := m.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "variant=%s native=%t hashes=%s rejected=%d rate=%s best=%s nonce=%d\n",
			v, consensus.Native, humanize.Comma(int64(s.Hashes)), s.Rejected,
			humanize.SIWithDigits(s.HashRate(), 2, "H/s"), s.Best.ReverseHex(), s.BestNonce)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP hashing service",
	RunE: func(cmd *cobra.Command, args []string) error {
		engines, err := verushash.New()
		if err != nil {
			return err
		}
		defer engines.Close()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := metrics.New(reg)
		if err != nil {
			return err
		}

		opts := rpc.Options{
			Metrics:   m,
			Gatherer:  reg,
			CacheSize: cfg.RPC.CacheSize,
			Logger:    logger.Named("rpc"),
		}
		if cfg.Store.Enabled {
			journal, err := store.NewBadgerStore(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer journal.Close()
			opts.Journal = journal
		}

		srv, err := rpc.NewServer(engines, opts)
		if err != nil {
			return err
		}

		errc := make(chan error, 1)
		go func() { errc <- srv.Start(cfg.RPC.ListenAddr) }()

		select {
		case err := <-errc:
			return err
		case <-interrupted():
			logger.Info("shutting down")
			return nil
		}
	},
}

func init() {
	hashCmd.Flags().StringVar(&hashVariant, "variant", consensus.VariantV2b2.String(), "hash variant: v1, v2, v2b, v2b1, v2b2")

	benchCmd.Flags().IntVar(&benchThreads, "threads", 0, "worker count (default miner.threads, 0 for one per CPU)")
	benchCmd.Flags().DurationVar(&benchDuration, "duration", 10*time.Second, "how long to run")
	benchCmd.Flags().StringVar(&benchTemplate, "template", "", "header+solution template as hex (default a synthetic PBaaS block)")
}

func interrupted() <-chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	return c
}

// defaultTemplate builds a PBaaS block with one chain descriptor. The miner
// seals it on every nonce.
func defaultTemplate() []byte {
	buf := make([]byte, pbaas.SolutionOffset+pbaas.SolutionHeaderSize+pbaas.ChainDescriptorSize)
	for i := pbaas.VersionOffset + 4; i < pbaas.TimeOffset; i++ {
		buf[i] = byte(i)
	}
	binary.LittleEndian.PutUint32(buf[pbaas.VersionOffset:], 4)
	binary.LittleEndian.PutUint32(buf[pbaas.TimeOffset:], uint32(time.Now().Unix()))
	buf[pbaas.SolutionOffset-pbaas.SolutionSizePrefix] = 0xfd
	binary.LittleEndian.PutUint16(buf[pbaas.SolutionOffset-2:], uint16(len(buf)-pbaas.SolutionOffset))
	binary.LittleEndian.PutUint32(buf[pbaas.SolutionOffset:], pbaas.MinPBaaSSolutionVersion)
	buf[pbaas.SolutionOffset+pbaas.NumPBaaSHeadersOffset] = 1
	return buf
}
