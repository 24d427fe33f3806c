package puzzle

import (
	"github.com/bagmint/bagmint/pkg/crypto"
	"github.com/bagmint/bagmint/pkg/types"
)

// moduleHash derives a protocol template identity. Template identities are
// fixed constants of the protocol; changing one changes every puzzle hash
// derived from it.
func moduleHash(name string) types.Hash {
	return crypto.Hash([]byte("bagmint/puzzle/" + name + "/v1"))
}

// Module hashes for every template in the protocol.
var (
	// SingletonModHash wraps an inner puzzle into a singleton lineage.
	SingletonModHash = moduleHash("singleton_top_layer")

	// LauncherPuzzleHash is the uncurried singleton launcher. Every
	// singleton's identity is the ID of its launcher coin.
	LauncherPuzzleHash = moduleHash("singleton_launcher")

	// StateLayerModHash carries the item metadata.
	StateLayerModHash = moduleHash("nft_state_layer")

	// MetadataUpdaterPuzzleHash is the default (frozen) metadata updater.
	MetadataUpdaterPuzzleHash = moduleHash("nft_metadata_updater_default")

	// OwnershipModHash carries the current owner and the transfer program.
	OwnershipModHash = moduleHash("nft_ownership_layer")

	// TransferProgramModHash is the default royalty transfer program.
	TransferProgramModHash = moduleHash("nft_transfer_program")

	// PreLauncherModHash is the per-item commitment puzzle (mint/melt).
	PreLauncherModHash = moduleHash("pre_launcher")

	// P2DelegateModHash runs a curried delegated puzzle.
	P2DelegateModHash = moduleHash("p2_delegated_puzzle")

	// DirectDelegateModHash transfers the minted item to a fixed recipient.
	DirectDelegateModHash = moduleHash("direct_delegate")

	// OfferDelegateModHash binds the minted item's first transfer to a
	// multi-party exchange honoring declared payments.
	OfferDelegateModHash = moduleHash("offer_delegate")

	// SettlementPuzzleHash is the uncurried exchange settlement puzzle.
	SettlementPuzzleHash = moduleHash("settlement_payments")

	// P2PubKeyModHash is the standard wallet puzzle: a key signs the
	// delegated condition list.
	P2PubKeyModHash = moduleHash("p2_schnorr_pubkey")
)

// Modes accepted by the pre-launcher solution.
const (
	ModeMelt = 0
	ModeMint = 1
)

// MeltSentinel is the fixed value the creator signs to void a commitment.
var MeltSentinel = moduleHash("melt_sentinel").Bytes()
