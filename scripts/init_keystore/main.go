package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/chainms/internal/chain"
	"github.com/chainms/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("加载配置失败:", err)
	}

	var dir, passphrase string
	flag.StringVar(&dir, "dir", cfg.KeystoreDir, "keystore directory")
	flag.StringVar(&passphrase, "passphrase", "", "passphrase for the new account")
	flag.Parse()

	if passphrase == "" {
		log.Fatal("请通过 -passphrase 指定账户密码")
	}

	ks := chain.OpenKeystore(dir)
	if accounts := ks.Accounts(); len(accounts) > 0 {
		fmt.Println("keystore 中已有账户:")
		for _, addr := range accounts {
			fmt.Println("  " + addr.Hex())
		}
	}

	addr, err := ks.NewAccount(passphrase)
	if err != nil {
		log.Fatal("创建账户失败:", err)
	}

	fmt.Println("账户创建成功")
	fmt.Println("地址:", addr.Hex())
	fmt.Println("目录:", dir)
}
