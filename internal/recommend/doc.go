// Rentline - Property Rental Listings and Lead Qualification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rentline

// Package recommend ranks listings similar to the one a renter is viewing.
//
// Two signals are blended:
//
//   - Content similarity: city, property type, bedrooms, rent and amenities.
//   - Co-visitation: how often two listings were viewed in the same web
//     session, from property_view analytics events. The model is rebuilt
//     periodically by the Engine's Serve loop.
//
// The blended list is reranked with Maximal Marginal Relevance so the
// suggestions are not five copies of the same building:
//
//	MMR = argmax[lambda * score(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// New listings have no views yet and rank on content alone.
package recommend
