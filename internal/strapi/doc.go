// Package strapi is a typed client for the Strapi REST API that stores the shop catalog,
// carts, cart items and clients. Every call is a single attempt; failures surface as
// *RemoteServiceError.
package strapi
