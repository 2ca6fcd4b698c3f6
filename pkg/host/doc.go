// Package host describes the platform side of package observation.
//
// A host delivers [Intent] values to registered [Receiver] implementations
// whose [Filter] matches. The [Context] interface is the registration
// contract; [Broadcaster] is an in-process implementation used by embedding
// applications, by the directory host plugin, and by tests.
//
// Package intents carry a data URI of the form "package:<identifier>" and may
// carry the boolean extras [ExtraReplacing] and [ExtraDataRemoved].
package host
