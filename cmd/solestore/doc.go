// Command solestore runs the storefront back office: the model asset
// pipeline and the catalog API.
//
//	solestore serve                      # catalog HTTP server
//	solestore migrate                    # create pending tables
//	solestore migrate:rollback
//	solestore migrate:status
//	solestore seed                       # reset the sample catalog
//	solestore route:list
//	solestore asset:process shoe1.glb    # convert + compress one model
//	solestore asset:batch public/models --continue-on-error --publish
//	solestore asset:verify shoe1-draco.gltf
package main
