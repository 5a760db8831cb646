package main

import (
	"context"
	"log"
	"time"

	"github.com/chainms/internal/builder"
	"github.com/chainms/internal/chain"
	"github.com/chainms/internal/config"
	"github.com/chainms/internal/db"
	"github.com/chainms/internal/handler"
	"github.com/chainms/internal/publish"
	"github.com/chainms/internal/router"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	contract := common.HexToAddress(cfg.ContractAddress)
	var backend chain.Backend
	switch cfg.ContractBackend {
	case config.BackendLocal:
		log.Printf("[CONTRACT] using local sqlite backend at %s", cfg.DatabasePath)
		backend = chain.NewLocalBackend(db.DB, contract, cfg.ChainID)
	default:
		rpcBackend, err := chain.DialRPCBackend(ctx, cfg.RPCURL, cfg.ChainID)
		if err != nil {
			log.Fatalf("failed to connect to %s: %v", cfg.RPCURL, err)
		}
		backend = rpcBackend
	}
	gateway := chain.NewGateway(backend, contract, cfg.ChainID)

	var names chain.NameResolver
	if cfg.ENSRPCURL != "" && cfg.ENSRegistry != "" {
		ensClient, err := ethclient.DialContext(ctx, cfg.ENSRPCURL)
		if err != nil {
			log.Printf("[ENS] dial %s failed, names disabled: %v", cfg.ENSRPCURL, err)
		} else {
			names = chain.NewENS(ensClient, common.HexToAddress(cfg.ENSRegistry))
		}
	}
	resolver := chain.NewResolver(names, cfg.ENSSuffixes)

	network := cfg.NetworkName()
	history := publish.NewHistory(db.DB)
	sessions := publish.NewManager(func() *publish.Session {
		return publish.NewSession(gateway, network, cfg.ChainID, history)
	}, cfg.EditorSessionTTL)

	renderer := builder.NewRenderer(builder.DefaultRegistry(builder.Deps{
		Caller:     gateway,
		MegoAPIURL: cfg.MegoAPIURL,
	}))

	api := handler.NewAPI(handler.Options{
		Resolver:      resolver,
		Gateway:       gateway,
		Wallets:       chain.OpenKeystore(cfg.KeystoreDir),
		Renderer:      renderer,
		Sessions:      sessions,
		History:       history,
		Networks:      cfg.SupportedChains,
		RedirectDelay: cfg.PublishRedirectDelay,
		ShowErrors:    cfg.GinMode == gin.DebugMode,
	})

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret)
	log.Printf("[SERVER] pages on %s (chain %d, contract %s), serving %s", network, cfg.ChainID, contract.Hex(), cfg.SiteBaseURL)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
