// Package reembed regenerates embedding vectors for the stored chunk corpus,
// used after switching or upgrading the embedding model.
//
// Each meeting's chunk set is re-embedded and replaced atomically, so search
// keeps serving the prior vectors until the meeting's new set is published.
package reembed
