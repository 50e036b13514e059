// Package feature defines the feature flag model and the rule evaluation engine.
//
// A Flag is identified by an opaque ID and by a stable, human-chosen Code that
// every caller uses for lookups. Its Enabled field is a master switch; its
// optional Rule narrows who sees the feature while the flag is on.
//
// # Rules
//
// Rule is a closed sum type with three variants:
//
//   - UserTargeting  - listed user IDs, or a percentage rollout over users
//   - GroupTargeting - listed group IDs, or a percentage rollout over groups
//   - TimeBasedActivation - active while Start <= now <= End
//
// A nil Rule makes the flag a plain toggle. Engine.Evaluate matches on the
// variant with a single type switch; it never returns an error and fails
// closed when the evaluation context lacks the key a rule needs.
//
// # Usage
//
//	engine := feature.NewEngine()
//	rule := feature.UserTargeting{UserIDs: []string{"u1"}, Percentage: 25}
//
//	engine.Evaluate("BETA", rule, feature.EvalContext{"userId": "u1"}) // true, listed
//	engine.Evaluate("BETA", rule, feature.EvalContext{"userId": "u9"}) // true for ~25% of users
//	engine.Evaluate("BETA", rule, feature.EvalContext{})               // false, no userId
//
// # Percentage rollouts
//
// Bucket hashes code + ":" + id with xxhash and reduces it modulo 10000.
// An identifier is in the rollout when its bucket is below percentage*100.
// The result depends only on the flag code and the identifier, so every
// replica buckets the same user identically without coordination, and a user
// who is in the rollout of one flag is not automatically in another's.
//
// # Encoding
//
// Flag implements json.Marshaler and json.Unmarshaler. Rules are encoded with
// a "type" discriminant (see MarshalRule), which is the format used by caches
// and by stores that keep the rule in a single column.
package feature
