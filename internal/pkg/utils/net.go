package utils

import "net"

// GetOutboundIP 获取本机对外通信使用的 IP 地址（借助一次 UDP "连接"，不会真正发包）。
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String(), nil
}
