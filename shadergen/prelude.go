package shadergen

// prelude holds the fixed set of helper functions every compiled
// shader gets, mirroring interp/ops_matrix.go's closed-form math for the
// handful of operations core WGSL has no builtin for (determinant,
// inverse, quaternion algebra) plus the premultiplied-alpha compositing
// helper.
const prelude = `
fn sg_color_mix(dst: vec4<f32>, src: vec4<f32>) -> vec4<f32> {
	return dst + src * (1.0 - dst.a);
}

fn sg_det3(m: mat3x3<f32>) -> f32 {
	return m[0][0] * (m[1][1] * m[2][2] - m[1][2] * m[2][1])
		 - m[0][1] * (m[1][0] * m[2][2] - m[1][2] * m[2][0])
		 + m[0][2] * (m[1][0] * m[2][1] - m[1][1] * m[2][0]);
}

fn sg_inverse3(m: mat3x3<f32>) -> mat3x3<f32> {
	let d = sg_det3(m);
	let inv_d = 1.0 / d;
	let r0 = vec3<f32>(
		m[1][1] * m[2][2] - m[1][2] * m[2][1],
		m[0][2] * m[2][1] - m[0][1] * m[2][2],
		m[0][1] * m[1][2] - m[0][2] * m[1][1],
	);
	let r1 = vec3<f32>(
		m[1][2] * m[2][0] - m[1][0] * m[2][2],
		m[0][0] * m[2][2] - m[0][2] * m[2][0],
		m[0][2] * m[1][0] - m[0][0] * m[1][2],
	);
	let r2 = vec3<f32>(
		m[1][0] * m[2][1] - m[1][1] * m[2][0],
		m[0][1] * m[2][0] - m[0][0] * m[2][1],
		m[0][0] * m[1][1] - m[0][1] * m[1][0],
	);
	return mat3x3<f32>(r0 * inv_d, r1 * inv_d, r2 * inv_d);
}

fn sg_quat_mul(a: vec4<f32>, b: vec4<f32>) -> vec4<f32> {
	return vec4<f32>(
		a.w * b.x + a.x * b.w + a.y * b.z - a.z * b.y,
		a.w * b.y - a.x * b.z + a.y * b.w + a.z * b.x,
		a.w * b.z + a.x * b.y - a.y * b.x + a.z * b.w,
		a.w * b.w - a.x * b.x - a.y * b.y - a.z * b.z,
	);
}

fn sg_quat_conjugate(q: vec4<f32>) -> vec4<f32> {
	return vec4<f32>(-q.x, -q.y, -q.z, q.w);
}
`
