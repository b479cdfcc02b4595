/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package ipd runs a partner-choice iterated Prisoner's Dilemma.
//
// How a session plays out
//   - Round 1 pairs every participant at random; every pair must consent
//   - Rematched participants send a signal of 0-5 stars, see their partner's
//     signal, then accept or reject the partner
//   - A pair plays the Dilemma only if both accepted
//   - After play, the pair stays together with probability p, unless either
//     participant defected
//   - Next round, continuing pairs play again without consent; everybody else
//     is shuffled into a pool and re-paired
//
// Every phase is a barrier across the whole session: nothing resolves until
// all expected inputs for that phase are in. Randomness is injected through
// Rand so runs are reproducible from a seed.
package ipd
