package handler

import (
	"log"
	"net/http"
	"net/url"

	"github.com/chainms/internal/abiform"
	"github.com/chainms/internal/builder"
	"github.com/chainms/internal/chain"
	"github.com/chainms/internal/publish"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/gin-gonic/gin"
)

// ContractWrite 执行页面上 ContractWrite 区块提交的合约写操作，结果通过重定向参数带回页面。
func (a *API) ContractWrite(c *gin.Context) {
	rawAddress := c.Param("address")
	function := c.PostForm("function")
	back := localRedirect(c.PostForm("redirect"))

	finish := func(ok bool, message string) {
		query := url.Values{}
		query.Set("write_addr", rawAddress)
		query.Set("write_fn", function)
		query.Set("write_msg", message)
		if ok {
			query.Set("write_ok", "1")
		}
		c.Redirect(http.StatusSeeOther, back+"?"+query.Encode())
	}

	to, ok := chain.ParseAddress(rawAddress)
	if !ok {
		finish(false, "Invalid contract address")
		return
	}
	_, methods, err := builder.WriteFunctions(c.PostForm("abi"))
	if err != nil {
		finish(false, "Invalid ABI JSON")
		return
	}
	var method *abi.Method
	for i := range methods {
		if methods[i].RawName == function {
			method = &methods[i]
			break
		}
	}
	if method == nil {
		finish(false, "Function "+function+" not found")
		return
	}

	raw := make([]string, len(method.Inputs))
	for i := range method.Inputs {
		raw[i] = c.PostForm(builder.ArgField(i))
	}
	args, err := abiform.CoerceArgs(method.Inputs, raw)
	if err != nil {
		finish(false, err.Error())
		return
	}
	packed, err := method.Inputs.Pack(args...)
	if err != nil {
		finish(false, err.Error())
		return
	}
	data := append(append([]byte{}, method.ID...), packed...)

	conn := a.connection(c)
	if conn == nil {
		finish(false, publish.Message(publish.CategoryWalletNotReady, a.TargetNetwork(), nil))
		return
	}
	wallet, err := a.signingWallet(conn, c.PostForm("passphrase"))
	if err != nil {
		log.Printf("[CONTRACT] wallet for %s unavailable: %v", conn.Address.Hex(), err)
		wallet = nil
	}

	hash, err := a.gateway.Transact(c.Request.Context(), wallet, to, data)
	if err != nil {
		log.Printf("[CONTRACT] write %s.%s failed: %v", to.Hex(), function, err)
		finish(false, publish.Message(publish.Classify(err), a.TargetNetwork(), err))
		return
	}
	log.Printf("[CONTRACT] write %s.%s sent as %s", to.Hex(), function, hash.Hex())
	finish(true, "Transaction sent: "+hash.Hex())
}
