// Package featureflag manages feature flags on top of a Store, a Cache and a Notifier.
//
// Service is the entry point. Reads go through the cache (cache-aside): a hit
// never touches the store, a miss reads the store and fills the cache.
// Mutations write the store, refresh or evict the cache entry, and then
// announce the change, in that order:
//
//	svc := featureflag.NewService(store,
//		featureflag.WithCache(featureflag.NewMemoryCache(1024)),
//		featureflag.WithNotifier(featureflag.NewWebhookNotifier(url)),
//		featureflag.WithLogger(log),
//	)
//
//	flag, err := svc.Create(ctx, &feature.Flag{
//		Name: "Beta", Code: "BETA", Enabled: true,
//		Rule: feature.UserTargeting{UserIDs: []string{"u1"}},
//	})
//	if errors.Is(err, featureflag.ErrNotification) {
//		// flag was created; only the announcement failed
//	}
//
//	on, err := svc.IsEnabled(ctx, "BETA", feature.EvalContext{"userId": "u1"})
//
// # Failure policy
//
// A store error aborts the operation before any cache or notifier call.
// Cache errors are logged at warn level and otherwise ignored on every path;
// a failed cache read counts as a miss. A notifier error is returned as a
// *NotificationError together with the committed flag. ClearCache is the one
// call that reports cache errors.
//
// # Adapters
//
// This package ships MemoryStore, MemoryCache and WebhookNotifier. Database
// stores live in the pgstore, gormstore and mongostore subpackages, and the
// Redis cache in rediscache.
package featureflag
