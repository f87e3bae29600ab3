// Package rabbitmq подключает BFF к брокеру событий сессий. Провайдер
// авторизации и сами инстансы BFF публикуют события в topic-exchange,
// каждый инстанс читает их из своей очереди.
package rabbitmq
