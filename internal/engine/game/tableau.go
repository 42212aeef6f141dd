package game

// Tabela canônica da terceira carta do banker quando o player puxou.
// Linha = total do banker (0..7), coluna = valor da terceira carta do player
// (0..9). true = banker puxa. Mantida como dado explícito pra ser auditável
// e testável exaustivamente, em vez de condicionais aninhadas.
var bankerTableau = [8][10]bool{
	//                 0      1      2      3      4      5      6      7      8      9
	/* banker 0 */ {true, true, true, true, true, true, true, true, true, true},
	/* banker 1 */ {true, true, true, true, true, true, true, true, true, true},
	/* banker 2 */ {true, true, true, true, true, true, true, true, true, true},
	/* banker 3 */ {true, true, true, true, true, true, true, true, false, true},
	/* banker 4 */ {false, false, true, true, true, true, true, true, false, false},
	/* banker 5 */ {false, false, false, false, true, true, true, true, false, false},
	/* banker 6 */ {false, false, false, false, false, false, true, true, false, false},
	/* banker 7 */ {false, false, false, false, false, false, false, false, false, false},
}

// bankerDrawsAfterPlayerThird consulta a tabela. ok=false sinaliza lookup
// indefinido (violação de invariante, nunca deve acontecer com mãos válidas).
func bankerDrawsAfterPlayerThird(bankerTotal int, playerThird Card) (draws bool, ok bool) {
	if bankerTotal < 0 || bankerTotal > 7 || !playerThird.Valid() {
		return false, false
	}
	return bankerTableau[bankerTotal][playerThird], true
}

// bankerDrawsStandingPlayer cobre o caso em que o player não puxou:
// banker puxa com 0..5 e para com 6..7.
func bankerDrawsStandingPlayer(bankerTotal int) (draws bool, ok bool) {
	if bankerTotal < 0 || bankerTotal > 7 {
		return false, false
	}
	return bankerTotal <= 5, true
}
