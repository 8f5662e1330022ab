// Package lineageapps lists the LineageOS applications and the CI builds of
// their default branches.
//
// The app catalog is a JSON array of {name, description, repository,
// branch} objects. Builds come from the GitHub Actions API: the workflow
// named "build" of each repository, its completed push runs, and the APK
// artifact of each run, downloadable through nightly.link.
package lineageapps
