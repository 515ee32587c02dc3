// Command node runs an arcadechain sequencer node.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/tolelom/arcadechain/config"
	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/events"
	"github.com/tolelom/arcadechain/indexer"
	"github.com/tolelom/arcadechain/rpc"
	"github.com/tolelom/arcadechain/sequencer"
	"github.com/tolelom/arcadechain/storage"
	"github.com/tolelom/arcadechain/vm"
	"github.com/tolelom/arcadechain/wallet"

	// Import VM modules to trigger their init() self-registration.
	_ "github.com/tolelom/arcadechain/vm/modules/all"
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "arcade-node"
	app.Usage = "arcadechain sequencer node"
	app.Version = "0.1.0"
	app.Writer = os.Stdout
	app.Flags = []cli.Flag{configFlag, keyFlag, logLevelFlag, logFormatFlag}
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "Start the node (default)",
			Action: runNode,
		},
		{
			Name:   "genkey",
			Usage:  "Generate a sequencer key and exit",
			Action: genKey,
		},
	}
	app.Action = runNode
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func genKey(ctx *cli.Context) error {
	path := ctx.GlobalString(keyFlag.Name)
	w, err := wallet.Generate()
	if err != nil {
		return err
	}
	if err := wallet.SaveKey(path, password(), w.PrivKey()); err != nil {
		return err
	}
	fmt.Printf("Generated key. Public key (sequencer address): %s\n", w.PubKey())
	fmt.Printf("Saved to: %s\n", path)
	return nil
}

func runNode(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := setupLogging(cfg.Log); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	privKey, err := wallet.LoadKey(ctx.GlobalString(keyFlag.Name), password())
	if err != nil {
		return fmt.Errorf("load key: %w", err)
	}

	// ---- open DB ----
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("mkdir data dir: %w", err)
	}
	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "chain"))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	// State, blocks and the indexer share one DB under distinct key prefixes.
	state := storage.NewStateDB(db)
	bc := core.NewBlockchain(storage.NewBlockStore(db))
	if err := bc.Init(); err != nil {
		return fmt.Errorf("blockchain init: %w", err)
	}

	// ---- genesis block (if fresh chain) ----
	if bc.Tip() == nil {
		genesis, err := config.CreateGenesisBlock(cfg, state, privKey)
		if err != nil {
			return fmt.Errorf("genesis: %w", err)
		}
		if err := bc.AddBlock(genesis); err != nil {
			return fmt.Errorf("add genesis: %w", err)
		}
		log.WithField("hash", genesis.Hash).Info("Genesis block committed")
	}

	emitter := events.NewEmitter()
	idx, err := indexer.New(db, emitter)
	if err != nil {
		return fmt.Errorf("indexer: %w", err)
	}
	mempool := core.NewMempool()
	exec := vm.NewExecutor(state, emitter)
	seq := sequencer.New(cfg, bc, state, mempool, exec, emitter, privKey)
	if !seq.IsSequencer() {
		log.WithField("sequencer", cfg.Sequencer).Warn("Local key is not the configured sequencer, serving reads only")
	}

	// ---- RPC ----
	rpcAddr := fmt.Sprintf(":%d", cfg.RPCPort)
	rpcServer := rpc.NewServer(rpcAddr, rpc.NewHandler(bc, mempool, state, idx, cfg.Genesis.ChainID), cfg.RPCAuthToken)
	if err := rpcServer.Start(); err != nil {
		return fmt.Errorf("rpc start: %w", err)
	}
	log.WithFields(log.Fields{"addr": rpcAddr, "auth": cfg.RPCAuthToken != ""}).Info("RPC listening")

	interval := time.Duration(cfg.BlockInterval) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		return seq.Run(gctx, interval)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		return rpcServer.Stop()
	})
	log.WithFields(log.Fields{"sequencer": privKey.Public().Hex(), "interval": interval}).Info("Sequencer running")

	// Block production has stopped once Wait returns, so the deferred
	// db.Close cannot race a commit.
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Shutdown complete")
	return nil
}
