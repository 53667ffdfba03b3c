package solana

// PumpFunProgramID is the pump.fun bonding curve program. Every token
// launched through pump.fun mentions it in its creation transaction.
const PumpFunProgramID = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
