package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/chainms/internal/chain"
	"github.com/chainms/internal/config"
	"github.com/chainms/internal/db"
	"github.com/chainms/internal/page"
	"github.com/ethereum/go-ethereum/common"
)

// 为本地 sqlite 合约后端生成示例页面
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("加载配置失败:", err)
	}

	var address, passphrase string
	flag.StringVar(&address, "account", "", "keystore account that owns the demo pages")
	flag.StringVar(&passphrase, "passphrase", "", "keystore passphrase")
	flag.Parse()

	owner, ok := chain.ParseAddress(address)
	if !ok {
		log.Fatal("请通过 -account 指定 0x 开头的账户地址")
	}

	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	contract := common.HexToAddress(cfg.ContractAddress)
	gateway := chain.NewGateway(chain.NewLocalBackend(db.DB, contract, cfg.ChainID), contract, cfg.ChainID)
	wallet, err := chain.OpenKeystore(cfg.KeystoreDir).Wallet(owner, cfg.ChainID, passphrase)
	if err != nil {
		log.Fatal("打开钱包失败:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Println("开始生成示例页面...")
	for identifier, doc := range demoPages(contract) {
		data, err := doc.Marshal()
		if err != nil {
			log.Fatal("序列化页面失败:", err)
		}
		hash, err := gateway.StoreDocument(ctx, wallet, identifier, data)
		if err != nil {
			log.Fatalf("写入页面 %s 失败: %v", identifier, err)
		}
		fmt.Printf("  %s -> %s\n", page.NewIdentity(owner.Hex(), identifier).ViewPath(), hash.Hex())
	}
	fmt.Println("示例页面生成完成！")
}

func demoPages(contract common.Address) map[string]*page.Document {
	return map[string]*page.Document{
		"home": {
			Content: []page.Node{
				{Type: "Markdown", Props: map[string]any{"id": "intro", "content": "# Welcome\n\nThis page lives in the **page contract**."}},
				{Type: "Columns", Props: map[string]any{"id": "cols", "columns": 2, "gap": 20}},
				{Type: "Button", Props: map[string]any{"id": "docs", "text": "Read more", "href": "/", "textColor": "white", "backgroundColor": "#007bff"}},
			},
			Root: page.Root{Props: map[string]any{}},
			Zones: map[string][]page.Node{
				"cols:column-0": {{Type: "Markdown", Props: map[string]any{"id": "left", "content": "Left column"}}},
				"cols:column-1": {{Type: "ImageBlock", Props: map[string]any{"id": "right", "src": "https://placehold.co/400x300", "alt": "Placeholder"}}},
			},
		},
		"contract": {
			Content: []page.Node{
				{Type: "ContractView", Props: map[string]any{
					"id":           "lookup",
					"address":      contract.Hex(),
					"abi":          chain.PageContractABIJSON(),
					"functionName": "retrieve",
					"parameters":   `["` + contract.Hex() + `", "home"]`,
					"autoCall":     false,
				}},
			},
			Root: page.Root{Props: map[string]any{}},
		},
	}
}
