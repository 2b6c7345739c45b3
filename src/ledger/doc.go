// Package ledger implements the account model: a mapping from account
// identifiers (public-key strings) to non-negative integer balances.
//
// An AccountModel is not safe for concurrent use. The node serialises every
// access behind the same lock that guards the chain and the transaction pool,
// because applying a block mutates all three.
package ledger
