package ws

// ClientMsg é a mensagem de controle enviada pelo cliente no WebSocket.
// A mesa é única, então não há assinatura por evento: toda conexão recebe
// todas as atualizações de rodada.
type ClientMsg struct {
	Type string `json:"type"` // "ping"
}
