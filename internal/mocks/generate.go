package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Directory --dir ../domain/user --output domain/user --outpkg usermock --filename directory_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Publisher --dir ../domain/notification --output domain/notification --outpkg notificationmock --filename publisher_mock.go
