package keys

// Snapshot mais recente de uma partida, escrito pelo game-state-processor
func GameSnapshot(gameID string) string { return "game:snapshot:" + gameID }

// Lock de liquidação por partida
func SettlementLock(gameID string) string { return "settle:game:" + gameID }
